package broker

import (
	"strings"
	"testing"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		filter, topic string
		want          bool
	}{
		{"senai/iot/#", "senai/iot/pedidos", true},
		{"senai/iot/#", "senai/iot/status/pronto", true},
		{"senai/iot/#", "senai/iot", true},
		{"senai/iot/#", "senai/other", false},
		{"senai/iot/pedidos", "senai/iot/pedidos", true},
		{"senai/iot/pedidos", "senai/iot/pedidos/extra", false},
		{"senai/iot/status/+", "senai/iot/status/finalizado", true},
		{"senai/iot/status/+", "senai/iot/status", false},
		{"senai/+/pedidos", "senai/iot/pedidos", true},
	}
	for _, tc := range cases {
		if got := Match(tc.filter, tc.topic); got != tc.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tc.filter, tc.topic, got, tc.want)
		}
	}
}

func TestClientIDIsUniquePerCall(t *testing.T) {
	a, b := ClientID("Cozinha_Web"), ClientID("Cozinha_Web")
	if a == b {
		t.Fatalf("ids collide: %s", a)
	}
	if !strings.HasPrefix(a, "Cozinha_Web_") || len(a) != len("Cozinha_Web_")+8 {
		t.Fatalf("unexpected id %q", a)
	}
}
