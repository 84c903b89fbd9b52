package dbf

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// language driver ids seen in the wild
var drivers = map[byte]struct {
	name string
	cm   *charmap.Charmap
}{
	0x01: {"437", charmap.CodePage437},
	0x02: {"850", charmap.CodePage850},
	0x03: {"1252", charmap.Windows1252},
	0x57: {"1252", charmap.Windows1252},
	0x64: {"852", charmap.CodePage852},
	0x65: {"866", charmap.CodePage866},
	0x26: {"866", charmap.CodePage866},
	0xC8: {"1250", charmap.Windows1250},
	0xC9: {"1251", charmap.Windows1251},
	0xCA: {"1254", charmap.Windows1254},
	0xCB: {"1253", charmap.Windows1253},
}

func decoderForDriver(ldid byte) (*encoding.Decoder, string) {
	if d, ok := drivers[ldid]; ok {
		return d.cm.NewDecoder(), d.name
	}
	// 0x00 and unknown drivers: keep bytes as they are, which suits the
	// UTF-8 tables most tools write today
	return nil, ""
}

// DecoderForName resolves a .cpg code page name such as "UTF-8", "1252",
// "CP1251" or "ISO-8859-1". UTF-8 returns a nil decoder.
func DecoderForName(name string) (*encoding.Decoder, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "cp")
	switch n {
	case "", "utf-8", "utf8", "65001":
		return nil, nil
	case "437":
		return charmap.CodePage437.NewDecoder(), nil
	case "850":
		return charmap.CodePage850.NewDecoder(), nil
	case "852":
		return charmap.CodePage852.NewDecoder(), nil
	case "866":
		return charmap.CodePage866.NewDecoder(), nil
	}
	if strings.HasPrefix(n, "125") && len(n) == 4 {
		n = "windows-" + n
	} else if strings.HasPrefix(n, "8859") {
		n = "iso-" + n
	}
	enc, err := htmlindex.Get(n)
	if err != nil {
		return nil, fmt.Errorf("dbf: unknown code page %q", name)
	}
	return enc.NewDecoder(), nil
}
