package main

import "testing"

func TestCheckBusFlags(t *testing.T) {
	tests := []struct {
		mock, simBus bool
		wantErr      bool
	}{
		{false, false, true},
		{true, false, false},
		{false, true, false},
		{true, true, false},
	}
	for _, tc := range tests {
		err := checkBusFlags(tc.mock, tc.simBus)
		if (err != nil) != tc.wantErr {
			t.Errorf("checkBusFlags(mock=%v, simBus=%v) = %v, wantErr %v", tc.mock, tc.simBus, err, tc.wantErr)
		}
	}
}

func TestListenPort(t *testing.T) {
	tests := map[string]int{
		":8080":        8080,
		"0.0.0.0:9000": 9000,
		"localhost":    80,
		":notaport":    80,
	}
	for addr, want := range tests {
		if got := listenPort(addr); got != want {
			t.Errorf("listenPort(%q) = %d, want %d", addr, got, want)
		}
	}
}
