package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServeByDefault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "no args", args: nil, want: []string{"serve"}},
		{name: "flags only", args: []string{"--port", "3000"}, want: []string{"serve", "--port", "3000"}},
		{name: "help", args: []string{"--help"}, want: []string{"--help"}},
		{name: "command", args: []string{"routes", "add", "t1"}, want: []string{"routes", "add", "t1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, serveByDefault(tt.args))
		})
	}
}
