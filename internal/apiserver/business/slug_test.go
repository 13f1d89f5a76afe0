package business

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Panadería Doña Ana", "panaderia-dona-ana"},
		{"  Café & Té  ", "cafe-te"},
		{"Ferretería El Ñandú #2", "ferreteria-el-nandu-2"},
		{"ABC", "abc"},
		{"--Ya--existe--", "ya-existe"},
		{"¡¡!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.name))
		})
	}
}
