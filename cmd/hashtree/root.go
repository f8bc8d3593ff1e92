package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/htchunk"
	"github.com/gordian-engine/hashtree/hthash"
	"github.com/gordian-engine/hashtree/hthash/htsha256"
	"github.com/spf13/cobra"
)

// app holds the global flags and the state derived from them,
// shared by every subcommand.
type app struct {
	hexCompat bool
	logLevel  string
	logFile   string

	log       *slog.Logger
	logCloser io.Closer
}

// newRootCmd returns the root command and the app state it populates.
// Run it with [*app.execute] so the log file is released on every path.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "hashtree",
		Short: "Build hash trees and inclusion proofs over file blocks",

		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, closer, err := newLogger(cmd.ErrOrStderr(), a.logLevel, a.logFile)
			if err != nil {
				return err
			}
			a.log = log
			a.logCloser = closer
			return nil
		},
	}

	f := cmd.PersistentFlags()
	f.BoolVar(&a.hexCompat, "hex-compat", false, "hash hex digest text, matching roots from hex-string tooling")
	f.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, or error")
	f.StringVar(&a.logFile, "log-file", "", "also write logs to this file, rotating it as it grows")

	cmd.AddCommand(
		newRootDigestCmd(a),
		newProveCmd(a),
		newVerifyCmd(a),
		newHashCmd(a),
	)

	return cmd, a
}

// execute runs cmd and then closes the log file, if one was opened.
// Cobra skips post-run hooks when a command fails,
// so the close cannot live in one.
func (a *app) execute(cmd *cobra.Command) error {
	err := cmd.Execute()

	if a.logCloser != nil {
		if cerr := a.logCloser.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close log file: %w", cerr)
		}
		a.logCloser = nil
	}

	return err
}

func (a *app) hasher() hthash.Hasher {
	if a.hexCompat {
		return htsha256.HexHasher{}
	}
	return htsha256.Hasher{}
}

// formatDigest renders d for output.
// Hex-compatible digests are already text.
func (a *app) formatDigest(d hthash.Digest) string {
	if a.hexCompat {
		return string(d)
	}
	return d.String()
}

// parseDigest is the inverse of formatDigest.
func (a *app) parseDigest(s string) (hthash.Digest, error) {
	if a.hexCompat {
		if len(s) != htsha256.HexHashSize {
			return nil, fmt.Errorf(
				"hex-compatible digest must be %d characters, got %d",
				htsha256.HexHashSize, len(s),
			)
		}
		if _, err := hthash.ParseDigest(s); err != nil {
			return nil, err
		}
		return hthash.Digest(s), nil
	}
	return hthash.ParseDigest(s)
}

// blockFlags control how input files become tree blocks.
type blockFlags struct {
	chunkSize int
	parity    float32
	compress  bool
}

func (b *blockFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&b.chunkSize, "chunk-size", 0, "split a single file into shards of at most this many bytes")
	f.Float32Var(&b.parity, "parity", 0, "parity shards per data shard when splitting with --chunk-size")
	f.BoolVar(&b.compress, "compress", false, "snappy-compress the file before splitting with --chunk-size")
}

// buildTree reads the named files and builds a tree over them.
// Without a chunk size, each file is one block.
func (a *app) buildTree(b blockFlags, files []string) (*hashtree.Tree, error) {
	if len(files) == 0 {
		return nil, errors.New("at least one file is required")
	}

	if b.chunkSize < 0 || b.parity < 0 {
		return nil, errors.New("--chunk-size and --parity must not be negative")
	}

	var blocks [][]byte
	if b.chunkSize > 0 {
		if len(files) != 1 {
			return nil, fmt.Errorf("--chunk-size requires exactly one file, got %d", len(files))
		}

		data, err := os.ReadFile(files[0])
		if err != nil {
			return nil, err
		}

		c, err := htchunk.Split(data, htchunk.SplitConfig{
			ChunkSize:   b.chunkSize,
			ParityRatio: b.parity,
			Compress:    b.compress,
		})
		if err != nil {
			return nil, err
		}

		a.log.Info(
			"Split file",
			"file", files[0],
			"data_shards", c.NumData,
			"parity_shards", c.NumParity,
			"payload_size", c.PayloadSize,
		)
		blocks = c.Shards
	} else {
		blocks = make([][]byte, len(files))
		for i, name := range files {
			data, err := os.ReadFile(name)
			if err != nil {
				return nil, err
			}
			blocks[i] = data
		}
	}

	tree, err := hashtree.Build(a.hasher(), blocks)
	if err != nil {
		return nil, err
	}

	a.log.Debug(
		"Built tree",
		"leaves", tree.NumLeaves(),
		"padded_leaves", tree.NumPaddedLeaves(),
		"depth", tree.Depth(),
	)
	return tree, nil
}
