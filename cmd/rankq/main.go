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

// Command rankq loads a toy on-disk index and runs one disjunctive
// top-k query against it end to end, printing the ranked results.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/ranksearch/rankcore/accum"
	"github.com/ranksearch/rankcore/config"
	"github.com/ranksearch/rankcore/index"
	"github.com/ranksearch/rankcore/postings"
	"github.com/ranksearch/rankcore/rank"
	"github.com/ranksearch/rankcore/result"
)

func main() {
	fs := flag.NewFlagSet("rankq", flag.ExitOnError)
	cfg := config.Register(fs)
	fs.Usage = func() { printHelp(fs) }
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	terms := fs.Args()

	if err := run(cfg, terms); err != nil {
		fmt.Fprintln(os.Stderr, "rankq:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, terms []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(terms) == 0 {
		return fmt.Errorf("rankq: at least one query term is required")
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	queryID := uuid.New()
	logger.Printf("query %s: index=%s terms=%v topk=%d width=%d", queryID, cfg.IndexPath, terms, cfg.TopK, cfg.Width)

	var opts []index.Option
	if cfg.Verbose {
		opts = append(opts, index.WithLogger(logger))
	}
	idx, err := index.LoadFile(cfg.IndexPath, opts...)
	if err != nil {
		return err
	}

	switch cfg.Width {
	case 16:
		return runQuery[uint16](idx, terms, cfg.TopK, logger, cfg.Verbose)
	case 32:
		return runQuery[uint32](idx, terms, cfg.TopK, logger, cfg.Verbose)
	default:
		return runQuery[uint64](idx, terms, cfg.TopK, logger, cfg.Verbose)
	}
}

// runQuery decodes each term's postings into the engine's accumulator,
// sharing one scratch buffer across the whole query so repeat hits (a
// document matched by more than one term) can be reported without
// touching the engine itself. The scratch buffer never feeds back into
// scoring; it exists purely for the -v overlap diagnostics.
func runQuery[S accum.Score](idx *index.Index, terms []string, topK int, logger *log.Logger, verbose bool) error {
	e, err := rank.New[S](idx.Keys, idx.Documents, topK)
	if err != nil {
		return err
	}

	scratch := postings.NewScratch(idx.Documents)
	for _, term := range terms {
		overlap := 0
		err := idx.Decode(term, func(doc uint32, impact uint16) {
			if scratch.MarkSeen(doc) {
				overlap++
			}
			e.AddRSV(doc, S(impact))
		})
		if err != nil {
			return fmt.Errorf("rankq: term %q: %w", term, err)
		}
		if verbose {
			logger.Printf("term %q: %d documents already matched by an earlier term", term, overlap)
		}
	}

	return result.Print(os.Stdout, e.Begin())
}

func printHelp(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "usage: rankq -index PATH [-topk N] [-width 16|32|64] [-v] TERM [TERM...]")
	fs.PrintDefaults()
}
