package ogg

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/simonhull/vorbistag/internal/types"
)

func writeTemp(t *testing.T, raw []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.ogg")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func readBackFile(t *testing.T, path string) []byte {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	return raw
}

func injectInto(t *testing.T, path string, serial uint32, body []byte, resume int64) error {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("open for writing: %v", err)
	}
	defer f.Close()
	return Inject(f, path, serial, body, resume)
}

// streamPackets walks the whole image, reassembles the target stream,
// and fails on any framing damage. Sequence contiguity is enforced by
// the reassembly itself. The second result reports whether a page
// carried the stream's last-page flag.
func streamPackets(t *testing.T, raw []byte, serial uint32) ([][]byte, bool) {
	t.Helper()
	sr := testReader(raw)
	var pages []*Page
	sawLast := false
	offset := int64(0)
	for offset < sr.Size() {
		page, next, err := readPage(sr, offset)
		if err != nil {
			t.Fatalf("walk at offset %d: %v", offset, err)
		}
		offset = next
		if page.SerialNumber != serial {
			continue
		}
		pages = append(pages, page)
		if page.Last() {
			sawLast = true
		}
	}
	packets, complete, err := toPackets(pages)
	if err != nil {
		t.Fatalf("reassemble stream 0x%08x: %v", serial, err)
	}
	if !complete {
		t.Errorf("stream 0x%08x left open at end of file", serial)
	}
	return packets, sawLast
}

func TestInject_GrowComment(t *testing.T) {
	raw := buildVorbisFile(t, 7, 44100, 44100, "old vendor", [2]string{"TITLE", "old"})
	path := writeTemp(t, raw)

	body := commentPacket(t, "new vendor",
		[2]string{"TITLE", "a much longer replacement title"},
		[2]string{"ALBUM", "Substrata"})[len(commentMarker):]
	if err := injectInto(t, path, 7, body, 0); err != nil {
		t.Fatalf("Inject: %v", err)
	}

	packets, sawLast := streamPackets(t, readBackFile(t, path), 7)
	if !sawLast {
		t.Error("last-page flag lost")
	}
	if len(packets) != 5 {
		t.Fatalf("stream carries %d packets, want 5", len(packets))
	}
	if !bytes.Equal(packets[0], identPacket(2, 44100, 0, 128000, 0)) {
		t.Error("identification packet changed")
	}
	if !bytes.Equal(packets[1], append([]byte(commentMarker), body...)) {
		t.Error("comment packet is not the injected one")
	}
	if !bytes.Equal(packets[2], setupPacket(80)) {
		t.Error("setup packet changed")
	}
	if !bytes.Equal(packets[3], fill(2, 100)) || !bytes.Equal(packets[4], fill(3, 100)) {
		t.Error("audio packets changed")
	}
}

func TestInject_ShrinkComment(t *testing.T) {
	big := bytes.Repeat([]byte("pad "), 20000)
	raw := buildVorbisFile(t, 7, 44100, 44100, "v", [2]string{"PAD", string(big)})
	path := writeTemp(t, raw)

	body := commentPacket(t, "v", [2]string{"TITLE", "tiny"})[len(commentMarker):]
	if err := injectInto(t, path, 7, body, 0); err != nil {
		t.Fatalf("Inject: %v", err)
	}

	after := readBackFile(t, path)
	if len(after) >= len(raw) {
		t.Errorf("file did not shrink: %d -> %d bytes", len(raw), len(after))
	}

	packets, sawLast := streamPackets(t, after, 7)
	if !sawLast || len(packets) != 5 {
		t.Fatalf("stream carries %d packets, sawLast=%v", len(packets), sawLast)
	}
	if !bytes.Equal(packets[1], append([]byte(commentMarker), body...)) {
		t.Error("comment packet is not the injected one")
	}
	if !bytes.Equal(packets[2], setupPacket(80)) {
		t.Error("setup packet changed")
	}
}

func TestInject_SameBodyIsByteStable(t *testing.T) {
	// A file whose header layout already matches what the splice
	// produces: comment packet closing its page, setup on the next.
	body := commentPacket(t, "vendor", [2]string{"TITLE", "stable"})[len(commentMarker):]

	ident := fromPackets([][]byte{identPacket(2, 44100, 0, 0, 0)}, 7, 0)
	ident[0].HeaderType = flagFirst
	headers := fromPackets([][]byte{append([]byte(commentMarker), body...), setupPacket(80)}, 7, 1, 0)
	audio := audioPage(7, uint32(1+len(headers)), 44100, 90)
	audio.SetLast(true)

	all := append(ident, headers...)
	raw := concatPages(t, append(all, audio)...)
	path := writeTemp(t, raw)

	if err := injectInto(t, path, 7, body, 0); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if !bytes.Equal(readBackFile(t, path), raw) {
		t.Error("re-injecting the identical body changed the file")
	}
}

func TestInject_MuxedForeignPagesSurvive(t *testing.T) {
	// Target comment packet spans two pages with a foreign page wedged
	// between them, plus foreign pages on both sides.
	pad := bytes.Repeat([]byte{'p'}, 66000)
	headers := fromPackets([][]byte{commentPacket(t, "v", [2]string{"PAD", string(pad)}), setupPacket(40)}, 7, 1)
	if len(headers) < 2 {
		t.Fatalf("test needs a spanning comment packet, got %d pages", len(headers))
	}

	ident := fromPackets([][]byte{identPacket(2, 44100, 0, 0, 0)}, 7, 0)
	ident[0].HeaderType = flagFirst

	foreign := []*Page{
		audioPage(99, 0, 0, 25),
		audioPage(99, 1, 777, 25),
		audioPage(99, 2, 1554, 25),
	}
	foreign[2].SetLast(true)

	var layout []*Page
	layout = append(layout, ident[0], foreign[0], headers[0], foreign[1])
	layout = append(layout, headers[1:]...)
	tail := audioPage(7, uint32(1+len(headers)), 44100, 90)
	tail.SetLast(true)
	layout = append(layout, tail, foreign[2])
	raw := concatPages(t, layout...)
	path := writeTemp(t, raw)

	wantForeign, _ := streamPackets(t, raw, 99)

	body := commentPacket(t, "v", [2]string{"TITLE", "short now"})[len(commentMarker):]
	if err := injectInto(t, path, 7, body, 0); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	after := readBackFile(t, path)

	gotForeign, foreignLast := streamPackets(t, after, 99)
	if !foreignLast {
		t.Error("foreign stream's last-page flag lost")
	}
	if len(gotForeign) != len(wantForeign) {
		t.Fatalf("foreign stream: %d packets, want %d", len(gotForeign), len(wantForeign))
	}
	for i := range wantForeign {
		if !bytes.Equal(gotForeign[i], wantForeign[i]) {
			t.Errorf("foreign packet %d changed", i)
		}
	}

	packets, sawLast := streamPackets(t, after, 7)
	if !sawLast {
		t.Error("target stream's last-page flag lost")
	}
	if !bytes.Equal(packets[1], append([]byte(commentMarker), body...)) {
		t.Error("comment packet is not the injected one")
	}
	if !bytes.Equal(packets[2], setupPacket(40)) {
		t.Error("setup packet changed")
	}
}

func TestInject_OpenSetupTail(t *testing.T) {
	// The setup packet spills past the page where it starts; only the
	// pages up to that point are rebuilt, and the spilled remainder must
	// reconnect.
	setup := setupPacket(70000)
	ident := fromPackets([][]byte{identPacket(2, 44100, 0, 0, 0)}, 7, 0)
	ident[0].HeaderType = flagFirst
	headers := fromPackets([][]byte{commentPacket(t, "v", [2]string{"TITLE", "x"}), setup}, 7, 1)
	if len(headers) < 2 {
		t.Fatalf("test needs a spanning setup packet, got %d pages", len(headers))
	}
	audio := audioPage(7, uint32(1+len(headers)), 44100, 90)
	audio.SetLast(true)

	all := append(ident, headers...)
	raw := concatPages(t, append(all, audio)...)
	path := writeTemp(t, raw)

	body := commentPacket(t, "v", [2]string{"TITLE", "a rather different comment body"})[len(commentMarker):]
	if err := injectInto(t, path, 7, body, 0); err != nil {
		t.Fatalf("Inject: %v", err)
	}

	packets, sawLast := streamPackets(t, readBackFile(t, path), 7)
	if !sawLast || len(packets) != 4 {
		t.Fatalf("stream carries %d packets, sawLast=%v", len(packets), sawLast)
	}
	if !bytes.Equal(packets[1], append([]byte(commentMarker), body...)) {
		t.Error("comment packet is not the injected one")
	}
	if !bytes.Equal(packets[2], setup) {
		t.Errorf("setup packet changed: %d bytes, want %d", len(packets[2]), len(setup))
	}
}

func TestInject_SetupPrefixFillsExactPage(t *testing.T) {
	// The collected run ends on a page holding exactly 255 full setup
	// segments. Rebuilding would close that packet with a zero segment
	// on a page of its own, which must be dropped again to keep the
	// packet open.
	setup := setupPacket(65025 + 137 - len(setupMarker))
	comment := commentPacket(t, "v", [2]string{"TITLE", "x"})

	ident := fromPackets([][]byte{identPacket(2, 44100, 0, 0, 0)}, 7, 0)
	ident[0].HeaderType = flagFirst
	commentPage := &Page{
		SerialNumber:   7,
		SequenceNumber: 1,
		Lacing:         []byte{byte(len(comment))},
		Data:           comment,
	}
	setupHead := &Page{
		GranulePosition: -1,
		SerialNumber:    7,
		SequenceNumber:  2,
		Lacing:          bytes.Repeat([]byte{255}, 255),
		Data:            setup[:65025],
	}
	setupTail := &Page{
		HeaderType:     flagContinued,
		SerialNumber:   7,
		SequenceNumber: 3,
		Lacing:         []byte{137},
		Data:           setup[65025:],
	}
	audio := audioPage(7, 4, 44100, 90)
	audio.SetLast(true)

	raw := concatPages(t, ident[0], commentPage, setupHead, setupTail, audio)
	path := writeTemp(t, raw)

	body := commentPacket(t, "v", [2]string{"TITLE", "replaced"})[len(commentMarker):]
	if err := injectInto(t, path, 7, body, 0); err != nil {
		t.Fatalf("Inject: %v", err)
	}

	packets, sawLast := streamPackets(t, readBackFile(t, path), 7)
	if !sawLast || len(packets) != 4 {
		t.Fatalf("stream carries %d packets, sawLast=%v", len(packets), sawLast)
	}
	if !bytes.Equal(packets[1], append([]byte(commentMarker), body...)) {
		t.Error("comment packet is not the injected one")
	}
	if !bytes.Equal(packets[2], setup) {
		t.Errorf("setup packet changed: %d bytes, want %d", len(packets[2]), len(setup))
	}
}

func TestInject_ResumeAtCommentPage(t *testing.T) {
	raw := buildVorbisFile(t, 7, 44100, 44100, "v", [2]string{"TITLE", "x"})
	path := writeTemp(t, raw)

	body := commentPacket(t, "v", [2]string{"TITLE", "resumed"})[len(commentMarker):]
	if err := injectInto(t, path, 7, body, identPageSize); err != nil {
		t.Fatalf("Inject: %v", err)
	}

	packets, _ := streamPackets(t, readBackFile(t, path), 7)
	if !bytes.Equal(packets[1], append([]byte(commentMarker), body...)) {
		t.Error("comment packet is not the injected one")
	}
}

func TestInject_HeadersOnFinalPage(t *testing.T) {
	// Degenerate stream with no audio: the comment and setup page is
	// also the stream's last, and the rebuilt run must keep the flag on
	// its new final page.
	ident := fromPackets([][]byte{identPacket(2, 44100, 0, 0, 0)}, 7, 0)
	ident[0].HeaderType = flagFirst
	headers := fromPackets([][]byte{commentPacket(t, "v"), setupPacket(30)}, 7, 1)
	headers[len(headers)-1].SetLast(true)

	raw := concatPages(t, append(ident, headers...)...)
	path := writeTemp(t, raw)

	body := commentPacket(t, "v", [2]string{"TITLE", "x"})[len(commentMarker):]
	if err := injectInto(t, path, 7, body, 0); err != nil {
		t.Fatalf("Inject: %v", err)
	}

	packets, sawLast := streamPackets(t, readBackFile(t, path), 7)
	if !sawLast {
		t.Error("last-page flag lost")
	}
	if len(packets) != 3 {
		t.Fatalf("stream carries %d packets, want 3", len(packets))
	}
}

func TestInject_FailsBeforeMutation(t *testing.T) {
	t.Run("three packets in the comment region", func(t *testing.T) {
		// A nonconforming page carrying an extra packet between comment
		// and setup.
		comment := commentPacket(t, "v")
		extra := []byte("not a header")
		setup := setupPacket(30)
		page := &Page{
			SerialNumber:   7,
			SequenceNumber: 1,
			Lacing:         []byte{byte(len(comment)), byte(len(extra)), byte(len(setup))},
			Data:           append(append(bytes.Clone(comment), extra...), setup...),
		}
		ident := fromPackets([][]byte{identPacket(2, 44100, 0, 0, 0)}, 7, 0)
		ident[0].HeaderType = flagFirst
		raw := concatPages(t, ident[0], page)
		path := writeTemp(t, raw)

		err := injectInto(t, path, 7, []byte{0, 0, 0, 0, 0, 0, 0, 0, 0x01}, 0)
		var se *types.StructureError
		if !errors.As(err, &se) {
			t.Fatalf("err = %v, want StructureError", err)
		}
		if !bytes.Equal(readBackFile(t, path), raw) {
			t.Error("file mutated despite the structure error")
		}
	})

	t.Run("no comment packet", func(t *testing.T) {
		raw := concatPages(t, audioPage(7, 0, 0, 40))
		path := writeTemp(t, raw)

		err := injectInto(t, path, 7, nil, 0)
		var nh *types.NoHeaderError
		if !errors.As(err, &nh) {
			t.Fatalf("err = %v, want NoHeaderError", err)
		}
		if !bytes.Equal(readBackFile(t, path), raw) {
			t.Error("file mutated despite the missing header")
		}
	})

	t.Run("setup never follows", func(t *testing.T) {
		pages := fromPackets([][]byte{commentPacket(t, "v")}, 7, 1)
		raw := concatPages(t, pages...)
		path := writeTemp(t, raw)

		err := injectInto(t, path, 7, nil, 0)
		var se *types.StructureError
		if !errors.As(err, &se) {
			t.Fatalf("err = %v, want StructureError", err)
		}
		if !bytes.Equal(readBackFile(t, path), raw) {
			t.Error("file mutated despite the structure error")
		}
	})

	t.Run("junk file", func(t *testing.T) {
		raw := []byte("this is not an ogg container at all")
		path := writeTemp(t, raw)

		err := injectInto(t, path, 7, nil, 0)
		var nh *types.NoHeaderError
		if !errors.As(err, &nh) {
			t.Fatalf("err = %v, want NoHeaderError", err)
		}
	})
}

func TestInject_RepeatedSplices(t *testing.T) {
	raw := buildVorbisFile(t, 7, 44100, 44100, "v", [2]string{"TITLE", "first"})
	path := writeTemp(t, raw)

	titles := []string{"second", "third title, somewhat longer", "4", "fifth and final"}
	for _, title := range titles {
		body := commentPacket(t, "v", [2]string{"TITLE", title})[len(commentMarker):]
		if err := injectInto(t, path, 7, body, 0); err != nil {
			t.Fatalf("Inject(%q): %v", title, err)
		}
		packets, sawLast := streamPackets(t, readBackFile(t, path), 7)
		if !sawLast || len(packets) != 5 {
			t.Fatalf("after %q: %d packets, sawLast=%v", title, len(packets), sawLast)
		}
		if !bytes.Equal(packets[1], append([]byte(commentMarker), body...)) {
			t.Errorf("after %q: comment packet mismatch", title)
		}
		if !bytes.Equal(packets[2], setupPacket(80)) {
			t.Errorf("after %q: setup packet changed", title)
		}
	}
}
