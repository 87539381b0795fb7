package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// observeAll sanitizes and observes every line, returning the scope per line.
func observeAll(lines []string) []string {
	clean := Sanitizer{}.File(lines)
	tr := NewScopeTracker()
	out := make([]string, len(clean))
	for i, l := range clean {
		out[i] = tr.Observe(l)
	}
	return out
}

func TestScopeTracker_SimpleFunction(t *testing.T) {
	got := observeAll([]string{
		"#include <Wire.h>",
		"void setup() {",
		"  Wire.write(5);",
		"  Wire.begin();",
		"}",
		"int counter = 0;",
	})

	assert.Equal(t, []string{
		GlobalScope,
		"setup",
		"setup",
		"setup",
		"setup",
		GlobalScope,
	}, got)
}

func TestScopeTracker_BraceOnNextLine(t *testing.T) {
	got := observeAll([]string{
		"static bool HUD::init(uint8_t rotation)",
		"{",
		"  if (rotation > 3) {",
		"    return false;",
		"  }",
		"  tft.init();",
		"  return true;",
		"}",
	})

	assert.Equal(t, GlobalScope, got[0], "signature line precedes the body")
	for i := 1; i < len(got); i++ {
		assert.Equal(t, "HUD::init", got[i], "line %d", i+1)
	}
}

func TestScopeTracker_PrototypesDoNotChangeScope(t *testing.T) {
	got := observeAll([]string{
		"void initBus(int sda,",
		"             int scl);",
		"bool ready();",
		"Wire.begin();",
	})

	for i, g := range got {
		assert.Equal(t, GlobalScope, g, "line %d", i+1)
	}
}

func TestScopeTracker_CallsAndControlFlowAreNotDefinitions(t *testing.T) {
	got := observeAll([]string{
		"void loop() {",
		"  if (Wire.available()) {",
		"    Wire.read();",
		"  } else if (ready()) {",
		"    for (int i = 0; i < 3; i++) {",
		"      uint8_t v = readReg(i);",
		"      sensor->update(v);",
		"    }",
		"  }",
		"  while (busy()) {",
		"  }",
		"  auto cb = [](int x) {",
		"    return x;",
		"  };",
		"}",
	})

	for i, g := range got {
		assert.Equal(t, "loop", g, "line %d", i+1)
	}
}

func TestScopeTracker_ClassMethodsAndConstructors(t *testing.T) {
	got := observeAll([]string{
		"class Display {",
		"public:",
		"  void begin() {",
		"    tft.init();",
		"  }",
		"  int width;",
		"};",
		"Display::Display() : width(0),",
		"    height(0) {",
		"  tft.fillScreen(0);",
		"}",
		"Display::~Display() { tft.writecommand(0x10); }",
	})

	assert.Equal(t, GlobalScope, got[0])
	assert.Equal(t, "begin", got[2])
	assert.Equal(t, "begin", got[3])
	assert.Equal(t, "begin", got[4])
	assert.Equal(t, GlobalScope, got[5], "back in the class body")
	assert.Equal(t, GlobalScope, got[6])
	assert.Equal(t, GlobalScope, got[7])
	assert.Equal(t, "Display::Display", got[8])
	assert.Equal(t, "Display::Display", got[9])
	assert.Equal(t, "Display::Display", got[10])
	assert.Equal(t, "Display::~Display", got[11])
}

func TestScopeTracker_MacroStyleDefinitionAtTopLevel(t *testing.T) {
	got := observeAll([]string{
		"ISR(TIMER1_COMPA_vect) {",
		"  tick++;",
		"}",
	})
	assert.Equal(t, []string{"ISR", "ISR", "ISR"}, got)
}

func TestScopeTracker_IgnoresCommentedDefinitions(t *testing.T) {
	got := observeAll([]string{
		"/* void fake() {",
		"   } */",
		"// void other() {",
		"Wire.write(1);",
	})
	for i, g := range got {
		assert.Equal(t, GlobalScope, g, "line %d", i+1)
	}
}

func TestScopeTracker_Depth(t *testing.T) {
	tr := NewScopeTracker()
	tr.Observe("void a() {")
	assert.Equal(t, 1, tr.depth)
	tr.Observe("  if (x) {")
	assert.Equal(t, 2, tr.depth)
	tr.Observe("  }}")
	assert.Equal(t, 0, tr.depth)
	tr.Observe("}")
	assert.Equal(t, 0, tr.depth, "unbalanced closers never go negative")
	assert.Equal(t, GlobalScope, tr.Current())
}

func TestScopeTracker_BracesInCharLiterals(t *testing.T) {
	got := observeAll([]string{
		"void parse(char c) { if (c == '{') depth++; }",
		"Wire.write(1);",
		"void close(char c) {",
		"  if (c == '}') return;",
		"  Wire.write(2);",
		"}",
		"int after = 0;",
	})

	assert.Equal(t, []string{
		"parse",
		GlobalScope,
		"close",
		"close",
		"close",
		"close",
		GlobalScope,
	}, got)
}
