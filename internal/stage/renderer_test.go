package stage

import "testing"

func TestFontAtlasCoversKeyAlphabet(t *testing.T) {
	for _, key := range keyAlphabet {
		ch := []rune(key)[0]
		if _, _, ok := fontCell(ch); !ok {
			t.Fatalf("key %q has no font atlas cell", key)
		}
	}
}

func TestFontAtlasCoversPrintableASCII(t *testing.T) {
	for ch := rune(32); ch <= 126; ch++ {
		column, row, ok := fontCell(ch)
		if !ok {
			t.Fatalf("rune %q has no font atlas cell", ch)
		}
		if column < 0 || column >= FontCols || row < 0 {
			t.Fatalf("rune %q placed at cell (%d, %d)", ch, column, row)
		}
	}
}

func TestFontCellsAreUnique(t *testing.T) {
	type cell struct{ column, row int }
	seen := make(map[cell]rune, len(fontGlyphs))
	for _, ch := range fontGlyphs {
		column, row, ok := fontCell(ch)
		if !ok {
			t.Fatalf("glyph %q missing from its own atlas", ch)
		}
		c := cell{column, row}
		if prev, dup := seen[c]; dup {
			t.Fatalf("runes %q and %q share atlas cell (%d, %d)", prev, ch, column, row)
		}
		seen[c] = ch
	}
}

func TestFontCellUnknownRune(t *testing.T) {
	if _, _, ok := fontCell('漢'); ok {
		t.Fatal("unexpected atlas cell for an unmapped rune")
	}
	if _, _, ok := fontCell('?'); !ok {
		t.Fatal("placeholder rune missing from the atlas")
	}
}
