// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package config registers the flags a rankq-style query command needs
// and validates them into a plain Config value. It intentionally uses
// flag.FlagSet rather than a CLI framework, matching the rest of this
// module's command-line tools.
package config

import (
	"errors"
	"flag"
	"fmt"
)

// ErrInvalidWidth is wrapped into the error Validate returns when -width
// names an unsupported accumulator score width.
var ErrInvalidWidth = errors.New("config: width must be 16, 32, or 64")

// Config holds one query run's parameters.
type Config struct {
	IndexPath string
	TopK      int
	Width     int
	Verbose   bool
}

// Register adds this package's flags to fs and returns the Config they
// will populate once fs.Parse has run.
func Register(fs *flag.FlagSet) *Config {
	c := &Config{}
	fs.StringVar(&c.IndexPath, "index", "", "path to the on-disk index file")
	fs.IntVar(&c.TopK, "topk", 10, "number of results to return")
	fs.IntVar(&c.Width, "width", 32, "accumulator score width in bits: 16, 32, or 64")
	fs.BoolVar(&c.Verbose, "v", false, "log index load diagnostics")
	return c
}

// Validate reports an error if the parsed flags describe an invalid run.
func (c *Config) Validate() error {
	if c.IndexPath == "" {
		return fmt.Errorf("config: -index is required")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("config: -topk must be positive, got %d", c.TopK)
	}
	switch c.Width {
	case 16, 32, 64:
	default:
		return fmt.Errorf("%w: got %d", ErrInvalidWidth, c.Width)
	}
	return nil
}
