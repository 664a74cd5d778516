package cmds

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/base"
)

var ConfigVars = kong.Vars{
	"config":  "votingctl.yml",
	"timeout": "30s",
}

type FileLoad []byte

func (v FileLoad) MarshalText() ([]byte, error) {
	return []byte(v), nil
}

func (v *FileLoad) UnmarshalText(b []byte) error {
	var body []byte
	if bytes.Equal(bytes.TrimSpace(b), []byte("-")) {
		c, err := LoadFromStdInput()
		if err != nil {
			return err
		}
		body = c
	} else if c, err := os.ReadFile(filepath.Clean(string(b))); err != nil {
		return err
	} else {
		body = c
	}

	if len(body) < 1 {
		return errors.Errorf("empty file")
	}

	*v = body

	return nil
}

func (v FileLoad) Bytes() []byte {
	return []byte(v)
}

func (v FileLoad) String() string {
	return string(v)
}

func LoadFromStdInput() ([]byte, error) {
	var b []byte
	if fi, err := os.Stdin.Stat(); err != nil {
		return nil, err
	} else if (fi.Mode() & os.ModeCharDevice) == 0 {
		b, err = io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			return nil, err
		}
	}

	return bytes.TrimSpace(b), nil
}

type AddressFlag struct {
	address base.Address
}

func (v *AddressFlag) UnmarshalText(b []byte) error {
	a, err := base.NewAddress(string(b))
	if err != nil {
		return err
	}

	v.address = a

	return nil
}

func (v AddressFlag) Address() base.Address {
	return v.address
}

func (v AddressFlag) String() string {
	return v.address.String()
}
