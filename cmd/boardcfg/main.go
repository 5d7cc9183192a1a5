// Command boardcfg prints the TinyFX flash layout resolved for this build
// and can emit the linker MEMORY fragment for it. Other layouts can be
// checked with -flash, -firmware and -storage.
//
//	go run ./cmd/boardcfg
//	go run -tags cyw43 ./cmd/boardcfg -json
//	go run ./cmd/boardcfg -storage 3M -ld > memory.ld
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"tinyfx-go/board"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("boardcfg: ")
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

type report struct {
	Board         string `json:"board"`
	Wireless      bool   `json:"wireless"`
	StorageFixed  bool   `json:"storage_fixed"`
	FlashBytes    uint32 `json:"flash_bytes"`
	FirmwareBytes uint32 `json:"firmware_bytes"`
	StorageBytes  uint32 `json:"storage_bytes"`
	StorageOffset uint32 `json:"storage_offset"`
	GapBytes      uint32 `json:"gap_bytes"`
	Valid         bool   `json:"valid"`
	Error         string `json:"error,omitempty"`
}

func run(args []string, out io.Writer) error {
	fl := flag.NewFlagSet("boardcfg", flag.ContinueOnError)
	fl.SetOutput(out)
	cur := board.Current()
	flash := sizeFlag(cur.FlashBytes)
	firmware := sizeFlag(cur.FirmwareBytes)
	storage := sizeFlag(0)
	fl.Var(&flash, "flash", "physical flash size (bytes, or with K/M suffix)")
	fl.Var(&firmware, "firmware", "firmware reservation")
	fl.Var(&storage, "storage", "fixed storage size; 0 derives it from flash - firmware")
	asJSON := fl.Bool("json", false, "print the layout as JSON")
	linker := fl.Bool("ld", false, "print the linker MEMORY fragment instead")
	if err := fl.Parse(args); err != nil {
		return err
	}

	l := cur
	if isSet(fl, "flash") || isSet(fl, "firmware") || isSet(fl, "storage") {
		l = board.NewLayout(uint32(flash), uint32(firmware), uint32(storage))
	}
	verr := l.Validate()

	switch {
	case *linker:
		if verr != nil {
			return verr
		}
		_, err := io.WriteString(out, l.LinkerScript())
		return err
	case *asJSON:
		r := report{
			Board:         board.Name(),
			Wireless:      board.Wireless(),
			StorageFixed:  board.StorageFixed(),
			FlashBytes:    l.FlashBytes,
			FirmwareBytes: l.FirmwareBytes,
			StorageBytes:  l.StorageBytes,
			Valid:         verr == nil,
		}
		if verr == nil {
			r.StorageOffset, r.GapBytes = l.StorageOffset(), l.Gap()
		} else {
			r.Error = verr.Error()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return err
		}
	default:
		fmt.Fprintf(out, "board:     %s\n", board.Name())
		fmt.Fprintf(out, "wireless:  %t\n", board.Wireless())
		fmt.Fprintf(out, "flash:     %s\n", human(l.FlashBytes))
		fmt.Fprintf(out, "firmware:  %s\n", human(l.FirmwareBytes))
		fmt.Fprintf(out, "storage:   %s", human(l.StorageBytes))
		if verr == nil {
			fmt.Fprintf(out, " at 0x%08x", board.FlashBase+l.StorageOffset())
			if g := l.Gap(); g > 0 {
				fmt.Fprintf(out, " (%s unused)", human(g))
			}
		}
		fmt.Fprintln(out)
	}
	return verr
}

func isSet(fl *flag.FlagSet, name string) bool {
	set := false
	fl.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// sizeFlag accepts plain bytes or a K/M suffix (1536K, 4M).
type sizeFlag uint32

func (s *sizeFlag) String() string { return strconv.FormatUint(uint64(*s), 10) }

func (s *sizeFlag) Set(v string) error {
	mul := uint64(1)
	switch {
	case strings.HasSuffix(v, "K"), strings.HasSuffix(v, "k"):
		mul, v = board.KiB, v[:len(v)-1]
	case strings.HasSuffix(v, "M"), strings.HasSuffix(v, "m"):
		mul, v = board.MiB, v[:len(v)-1]
	}
	n, err := strconv.ParseUint(v, 0, 32)
	if err != nil || n*mul > 1<<32-1 {
		return fmt.Errorf("bad size %q", v)
	}
	*s = sizeFlag(n * mul)
	return nil
}

func human(n uint32) string {
	switch {
	case n >= board.MiB && n%board.MiB == 0:
		return strconv.FormatUint(uint64(n/board.MiB), 10) + " MiB"
	case n >= board.KiB && n%board.KiB == 0:
		return strconv.FormatUint(uint64(n/board.KiB), 10) + " KiB"
	}
	return strconv.FormatUint(uint64(n), 10) + " B"
}
