/*
 * S370 - Tape capture command.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Command simhcapture reads one or more logical tape files - either
// standard input, taken once, or a list of regular files/devices
// given on the command line - and writes them to a SIMH .tap image,
// one tape mark per logical file.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/tapekit/util/ingest"
	"github.com/rcornwell/tapekit/util/logger"
	"github.com/rcornwell/tapekit/util/simh"
)

var log *slog.Logger

func main() {
	optOutput := getopt.StringLong("output", 'o', "", "Output SIMH tape image (required)")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optRetry := getopt.IntLong("retry", 'r', 0, "Retry budget for a zero-record logical file (0 selects the default of 100)")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}
	if *optOutput == "" {
		fmt.Fprintln(os.Stderr, "usage: simhcapture -o <tape-image> [file ...]")
		getopt.Usage()
		os.Exit(2)
	}

	var logFile *os.File
	if *optLogFile != "" {
		var err error
		logFile, err = os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "simhcapture: %v\n", err)
			os.Exit(1)
		}
		defer logFile.Close()
	}
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	log = slog.New(logger.NewHandler(logFile, &slog.HandlerOptions{Level: level}))

	sessionID := uuid.New()
	log = log.With("session", sessionID.String())

	out, err := os.Create(*optOutput)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
	defer out.Close()

	log.Info("capture session started", "output", *optOutput)

	enc := simh.NewEncoder(out)
	open, nonSeekable := sourceFactory(getopt.Args(), log)

	p := ingest.NewPipeline(ingest.Config{RetryBudget: *optRetry})
	if err := p.Run(enc, open, nonSeekable); err != nil {
		log.Error("capture failed", "error", err.Error())
		fmt.Fprintf(os.Stderr, "simhcapture: %v\n", err)
		os.Exit(1)
	}

	log.Info("capture session finished")
}

// sourceFactory builds the ingest.OpenFunc driving one capture run.
// With no paths, standard input is the sole, non-seekable source.
// With paths, each is opened in turn as one logical tape file; once
// the list is exhausted, further opens return an already-exhausted
// reader so the pipeline's own empty-file bookkeeping winds the
// capture down cleanly.
func sourceFactory(paths []string, log *slog.Logger) (ingest.OpenFunc, bool) {
	if len(paths) == 0 {
		return func() (io.Reader, error) {
			return os.Stdin, nil
		}, true
	}

	index := 0
	open := func() (io.Reader, error) {
		if index >= len(paths) {
			return exhaustedReader{}, nil
		}
		path := paths[index]
		index++
		log.Info("opening input", "path", path)
		return os.Open(path)
	}
	return open, false
}

// exhaustedReader always reports end-of-file without ever opening
// anything.
type exhaustedReader struct{}

func (exhaustedReader) Read([]byte) (int, error) { return 0, io.EOF }
