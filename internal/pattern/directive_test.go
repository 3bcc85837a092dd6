package pattern

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseDirective(t *testing.T) {
	tests := []struct {
		token   string
		want    Directive
		wantErr error
	}{
		{token: "#ff0000", want: LiteralColor{Color: "#ff0000"}},
		{token: "red flashes", want: CatalogLookup{Token: "red flashes"}},
		{token: "~off", want: Off{}},
		{
			token: "~blink:#ff00ff-5",
			want:  Blink{Token: "~blink:#ff00ff-5", Color: "#ff00ff", Count: 5, Seconds: 0.3},
		},
		{
			token: "~blink:white-3-0.5",
			want:  Blink{Token: "~blink:white-3-0.5", Color: "#ffffff", Count: 3, Seconds: 0.5},
		},
		{
			token: "~blink:f00-2-abc",
			want:  Blink{Token: "~blink:f00-2-abc", Color: "#ff0000", Count: 2, Seconds: 0.3},
		},
		{
			token: "~blink:0000FF-1--2",
			want:  Blink{Token: "~blink:0000FF-1--2", Color: "#0000ff", Count: 1, Seconds: 0.3},
		},
		{token: "~blink:red", wantErr: ErrMalformedDirective},
		{token: "~blink:red-x", wantErr: ErrMalformedDirective},
		{token: "~pattern-stop:foo", want: StopNamed{Name: "foo"}},
		{
			token: "~pattern:foo:2,#ff0000,0.1,0",
			want:  AdHocPattern{Name: "foo", Text: "2,#ff0000,0.1,0"},
		},
		{token: "~pattern:foo", wantErr: ErrMalformedDirective},
		{token: "~pattern::1,#fff,0.1,0", wantErr: ErrMalformedDirective},
		{token: "~pattern:a:b:c", wantErr: ErrMalformedDirective},
		{token: "~dance", wantErr: ErrUnknownDirective},
		{token: "~", wantErr: ErrUnknownDirective},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseDirective(tt.token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseDirective() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDirective() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDirective() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestBlinkPattern(t *testing.T) {
	p := blinkPattern(Blink{Token: "~blink:#ff00ff-5", Color: "#ff00ff", Count: 5, Seconds: 0.3})

	if p.ID != "~blink:#ff00ff-5" || p.Name != p.ID {
		t.Errorf("id/name = %q/%q", p.ID, p.Name)
	}
	if !p.Temporary {
		t.Error("blink pattern should be temporary")
	}
	if got := p.PatternString(); got != "5,#ff00ff,0.3,0,#000000,0.3,0" {
		t.Errorf("PatternString() = %q", got)
	}
}

func TestNormalizeColor(t *testing.T) {
	tests := map[string]string{
		"#FF00FF":        "#ff00ff",
		"ff00ff":         "#ff00ff",
		"f0f":            "#ff00ff",
		"#0f0":           "#00ff00",
		"red":            "#ff0000",
		"White":          "#ffffff",
		"cornflowerblue": "#6495ed",
		"notacolor":      "notacolor",
	}
	for in, want := range tests {
		if got := NormalizeColor(in); got != want {
			t.Errorf("NormalizeColor(%q) = %q, want %q", in, got, want)
		}
	}
}
