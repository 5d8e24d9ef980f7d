/*
 * S370 - Tape analysis command.
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

// Command simhanalyze walks a SIMH .tap image and prints a structured
// report of the files and records it contains.
package main

import (
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/tapekit/util/analyzer"
	"github.com/rcornwell/tapekit/util/logger"
	"github.com/rcornwell/tapekit/util/report"
	"github.com/rcornwell/tapekit/util/simh"
)

var log *slog.Logger

func main() {
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optArchiveLog := getopt.StringLong("archive-log", 'a', "", "Write a compacted analysis log to this path")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logFile *os.File
	if *optLogFile != "" {
		var err error
		logFile, err = os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "simhanalyze: %v\n", err)
			os.Exit(1)
		}
		defer logFile.Close()
	}
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	log = slog.New(logger.NewHandler(logFile, &slog.HandlerOptions{Level: level}))

	args := getopt.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: simhanalyze [options] <tape-image>")
		getopt.Usage()
		os.Exit(2)
	}

	if err := run(args[0], *optArchiveLog); err != nil {
		log.Error(err.Error())
		fmt.Fprintf(os.Stderr, "simhanalyze: %v\n", err)
		os.Exit(1)
	}
}

func run(path, archivePath string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	log.Info("analyzing tape image", "path", path)

	dec := simh.NewDecoder(f, 0)
	a := analyzer.Run(dec)

	fmt.Print(report.Render(a))

	if archivePath != "" {
		blob, err := report.CompactLog(a)
		if err != nil {
			return fmt.Errorf("compacting analysis log: %w", err)
		}
		if blob != nil {
			if err := os.WriteFile(archivePath, blob, 0o644); err != nil {
				return fmt.Errorf("writing archive log %s: %w", archivePath, err)
			}
			log.Info("wrote compacted analysis log", "path", archivePath, "bytes", len(blob))
		}
	}

	return nil
}
