package exec

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/adarshpannu/flare/errs"
)

// lineIter yields successive lines (without their trailing newline) from a
// byte range of a single file. The core consumes a line iterator; computing
// filesystem partition boundaries is the collaborator's job (spec §1) — the
// CSV operator just hands us the [start, end) range it was compiled with.
//
// The range is enforced by wrapping f in an io.LimitReader once, at
// construction: bufio.Scanner reads ahead into its own internal buffer well
// past whatever it last returned from Scan, so asking the raw file
// descriptor for its current offset after the fact (f.Seek(0, io.SeekCurrent))
// would already be far beyond a small partition's end — that check starved
// every partition but the first of the rows already sitting in the
// scanner's buffer. Bounding the reader itself means Scan keeps yielding
// every buffered line until the limit is actually exhausted.
type lineIter struct {
	f       *os.File
	scanner *bufio.Scanner
}

func newLineIter(pathname string, start, end uint64) (*lineIter, error) {
	f, err := os.Open(pathname)
	if err != nil {
		return nil, errs.ErrIO.New(err.Error())
	}
	if _, err := f.Seek(int64(start), 0); err != nil {
		f.Close()
		return nil, errs.ErrIO.New(err.Error())
	}
	var r io.Reader = f
	if end > start {
		r = io.LimitReader(f, int64(end-start))
	}
	return &lineIter{f: f, scanner: bufio.NewScanner(r)}, nil
}

// next returns the next line and true, or "", false at end of range/file.
func (it *lineIter) next() (string, bool) {
	if !it.scanner.Scan() {
		return "", false
	}
	return it.scanner.Text(), true
}

func (it *lineIter) close() error {
	return it.f.Close()
}

// dirLineIter concatenates every file in a directory, in sorted filename
// order, into a single line stream (spec §4.5.2: "any enumeration order is
// acceptable; order within a file must be preserved").
type dirLineIter struct {
	dirname string
	names   []string
	idx     int
	cur     *lineIter
}

func newDirLineIter(dirname string) (*dirLineIter, error) {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		if os.IsNotExist(err) {
			return &dirLineIter{dirname: dirname}, nil
		}
		return nil, errs.ErrIO.New(err.Error())
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return &dirLineIter{dirname: dirname, names: names}, nil
}

func (it *dirLineIter) next() (string, bool, error) {
	for {
		if it.cur != nil {
			if line, ok := it.cur.next(); ok {
				return line, true, nil
			}
			it.cur.close()
			it.cur = nil
		}
		if it.idx >= len(it.names) {
			return "", false, nil
		}
		var err error
		it.cur, err = newLineIter(filepath.Join(it.dirname, it.names[it.idx]), 0, 0)
		it.idx++
		if err != nil {
			return "", false, err
		}
	}
}
