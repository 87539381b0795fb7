package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizer_Line(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		inBlock   bool
		want      string
		wantBlock bool
	}{
		{
			name: "plain code",
			raw:  "  Wire.begin();",
			want: "  Wire.begin();",
		},
		{
			name: "line comment truncates",
			raw:  "  Wire.write(5);   // Wire.begin() later",
			want: "  Wire.write(5);   ",
		},
		{
			name: "whole line comment",
			raw:  "// Wire.write(1);",
			want: "",
		},
		{
			name: "string contents removed",
			raw:  `Serial.println("Wire.write failed");`,
			want: `Serial.println("");`,
		},
		{
			name: "escaped quote inside string",
			raw:  `log("say \"Wire.\" now", Wire.available());`,
			want: `log("", Wire.available());`,
		},
		{
			name: "comment marker inside string is kept as code",
			raw:  `url = "http://host"; Wire.write(1);`,
			want: `url = ""; Wire.write(1);`,
		},
		{
			name: "unterminated string runs to end of line",
			raw:  `x = "abc Wire.write(`,
			want: `x = ""`,
		},
		{
			name: "inline block comment",
			raw:  "a(); /* Wire.write(1); */ b();",
			want: "a();   b();",
		},
		{
			name:      "block comment opens",
			raw:       "a(); /* Wire.write(1);",
			want:      "a(); ",
			wantBlock: true,
		},
		{
			name:      "inside block comment",
			raw:       "   Wire.write(1);",
			inBlock:   true,
			want:      "",
			wantBlock: true,
		},
		{
			name:    "block comment closes",
			raw:     "   end */ Wire.write(1);",
			inBlock: true,
			want:    " Wire.write(1);",
		},
		{
			name:      "closes then reopens",
			raw:       "*/ Wire.begin(); /* tft.init();",
			inBlock:   true,
			want:      " Wire.begin(); ",
			wantBlock: true,
		},
		{
			name:    "closes, reopens and closes again",
			raw:     "*/ a(); /* x */ b(); /* y */ c();",
			inBlock: true,
			want:    " a();   b();   c();",
		},
		{
			name: "quote char literal does not open a string",
			raw:  `if (c == '"') Wire.write(c);`,
			want: `if (c == '"') Wire.write(c);`,
		},
		{
			name: "escaped char literal",
			raw:  `buf[i] = '\''; Wire.write(buf[i]);`,
			want: `buf[i] = '\''; Wire.write(buf[i]);`,
		},
		{
			name: "digit separators",
			raw:  "uint32_t hz = 400'000; Wire.setClock(hz);",
			want: "uint32_t hz = 400'000; Wire.setClock(hz);",
		},
		{
			name: "block opener inside string",
			raw:  `s = "/*"; Wire.write(1);`,
			want: `s = ""; Wire.write(1);`,
		},
	}

	var s Sanitizer
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, block := s.Line(tt.raw, tt.inBlock)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantBlock, block)
		})
	}
}

func TestSanitizer_File(t *testing.T) {
	lines := []string{
		"void setup() {",
		"  /* disabled:",
		"     Wire.write(1);",
		"     tft.fillScreen(0);",
		"  */",
		"  Wire.begin(); // start bus",
		"}",
	}

	got := Sanitizer{}.File(lines)
	assert.Equal(t, []string{
		"void setup() {",
		"  ",
		"",
		"",
		"",
		"  Wire.begin(); ",
		"}",
	}, got)
}

func TestSanitizer_BlockCommentLinesNeverKeepText(t *testing.T) {
	inner := []string{
		"Wire.write(1);",
		`"Wire." "quoted"`,
		"// nested line comment Wire.",
		"/* nested opener Wire.write",
		"tft.init(); SPI.transfer(0);",
	}

	var s Sanitizer
	for _, l := range inner {
		got, block := s.Line(l, true)
		assert.Empty(t, got, "line %q inside a block comment", l)
		assert.True(t, block)
	}
}

func TestOutsideStrings(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`Serial.println("Wire.write");`, `Serial.println( );`},
		{`if (c == '"') Wire.write(5);`, `if (c == '"') Wire.write(5);`},
		{`if (c == '\"') log("x");`, `if (c == '\"') log( );`},
		{`log("a \" b"); tft.init();`, `log( ); tft.init();`},
		{`int n = 1'000;`, `int n = 1'000;`},
		{`log("unterminated`, `log( `},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutsideStrings(tt.line), tt.line)
	}
}
