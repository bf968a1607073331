package library

import (
	"errors"
	"log"
	"os"
)

var ErrMissing = errors.New("missing")

var errQuiet = errors.New("quiet")

func Panics() {
	panic("boom") // want "panic is forbidden"
}

func Fatals() {
	log.Fatal("boom")        // want "log.Fatal is forbidden outside main function"
	log.Panicf("%s", "boom") // want "log.Panicf is forbidden outside main function"
}

func Exits() {
	os.Exit(1) // want "os.Exit is forbidden outside main function"
}

func main() {
	os.Exit(0) // want "os.Exit is forbidden outside main function"
}

func Compare(err error) bool {
	if err == ErrMissing { // want "comparison with sentinel error ErrMissing, use errors.Is"
		return true
	}
	if os.ErrNotExist != err { // want "comparison with sentinel error ErrNotExist, use errors.Is"
		return false
	}
	if err == errQuiet {
		return true
	}
	return errors.Is(err, ErrMissing) || err == nil
}

type wrapped struct{ err error }

func (w wrapped) Error() string { return w.err.Error() }

func (w wrapped) Is(target error) bool {
	return target == ErrMissing
}

func (w wrapped) Same(target error) bool {
	return target == ErrMissing // want "comparison with sentinel error ErrMissing, use errors.Is"
}
