package corpus

import "testing"

func TestLineColFindsLineAndColumn(t *testing.T) {
	s := New("test", []byte("abc\ndef\nghi"))

	line, col := s.LineCol(0)
	if line != 1 || col != 1 {
		t.Errorf("pos 0: expected (1,1), got (%d,%d)", line, col)
	}

	line, col = s.LineCol(5) // 'e' on line 2
	if line != 2 || col != 2 {
		t.Errorf("pos 5: expected (2,2), got (%d,%d)", line, col)
	}

	line, col = s.LineCol(len(s.Content()))
	if line != 3 {
		t.Errorf("eof: expected line 3, got %d", line)
	}
}

func TestLineColNegativePositionClampsToStart(t *testing.T) {
	s := New("test", []byte("abc"))
	line, col := s.LineCol(-5)
	if line != 1 || col != 1 {
		t.Errorf("expected (1,1), got (%d,%d)", line, col)
	}
}

func TestNormalizeNlsConvertsCrAndCrlf(t *testing.T) {
	content := []byte("a\r\nb\rc\n")
	NormalizeNls(&content)
	got := string(content)
	want := "a\nb\nc\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
