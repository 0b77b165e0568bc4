package petal_test

import (
	"context"
	"testing"

	"github.com/dkarimov/petal"
	"github.com/stretchr/testify/assert"
)

func TestStaticCredentials_Check(t *testing.T) {
	checker := petal.NewStaticCredentials("danial", "albina")
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"exact match", "danial", "albina", true},
		{"wrong password", "danial", "albinb", false},
		{"wrong username", "dania", "albina", false},
		{"swapped fields", "albina", "danial", false},
		{"case difference", "Danial", "albina", false},
		{"both empty", "", "", false},
		{"trailing space", "danial", "albina ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := checker.Check(ctx, tt.username, tt.password)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestStaticCredentials_CancelledContext(t *testing.T) {
	checker := petal.NewStaticCredentials("danial", "albina")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := checker.Check(ctx, "danial", "albina")
	assert.ErrorIs(t, err, context.Canceled)
}
