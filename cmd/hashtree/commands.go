package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/hthash/htsha256"
	"github.com/spf13/cobra"
)

func newRootDigestCmd(a *app) *cobra.Command {
	var b blockFlags

	cmd := &cobra.Command{
		Use:   "root FILE...",
		Short: "Print the root digest of a tree with one block per file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.buildTree(b, args)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), a.formatDigest(tree.Root()))
			return err
		},
	}
	b.register(cmd)

	return cmd
}

func newProveCmd(a *app) *cobra.Command {
	var (
		b     blockFlags
		index int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "prove FILE...",
		Short: "Print the JSON inclusion proof for one block",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.buildTree(b, args)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if all {
				ps := tree.Proofs()
				out := make([]proofJSON, len(ps))
				for i, p := range ps {
					out[i] = a.encodeProof(p)
				}
				return enc.Encode(out)
			}

			p, err := tree.Proof(index)
			if err != nil {
				return err
			}
			return enc.Encode(a.encodeProof(p))
		},
	}
	b.register(cmd)
	cmd.Flags().IntVar(&index, "index", 0, "position of the block in the padded leaf layer")
	cmd.Flags().BoolVar(&all, "all", false, "print every proof as a JSON array instead")
	cmd.MarkFlagsMutuallyExclusive("index", "all")

	return cmd
}

// errProofRejected is returned from verify when the proof does not match.
var errProofRejected = errors.New("proof does not verify against root")

func newVerifyCmd(a *app) *cobra.Command {
	var rootHex, proofPath, dataPath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a JSON inclusion proof against a root digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := a.parseDigest(rootHex)
			if err != nil {
				return fmt.Errorf("invalid --root: %w", err)
			}

			raw, err := os.ReadFile(proofPath)
			if err != nil {
				return err
			}
			var pj proofJSON
			if err := json.Unmarshal(raw, &pj); err != nil {
				return fmt.Errorf("failed to parse proof: %w", err)
			}
			p, err := a.decodeProof(pj)
			if err != nil {
				return err
			}

			h := a.hasher()
			var ok bool
			if dataPath != "" {
				data, err := os.ReadFile(dataPath)
				if err != nil {
					return err
				}
				ok = hashtree.VerifyLeaf(h, data, p, root)
			} else {
				ok = hashtree.Verify(h, p, root)
			}

			a.log.Debug("Verified proof", "leaf_index", p.LeafIndex, "ok", ok)

			if !ok {
				return errProofRejected
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&rootHex, "root", "", "expected root digest, in hex")
	f.StringVar(&proofPath, "proof", "", "path to a JSON proof from the prove command")
	f.StringVar(&dataPath, "data", "", "optional block data; checks the proof's leaf hash against it")
	_ = cmd.MarkFlagRequired("root")
	_ = cmd.MarkFlagRequired("proof")

	return cmd
}

func newHashCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hash FILE",
		Short: "Print the SHA-256 digest of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			a.log.Debug("Hashing file", "file", args[0], "size", len(data))

			_, err = fmt.Fprintln(cmd.OutOrStdout(), htsha256.Sum(data).String())
			return err
		},
	}
}

// proofJSON is the command line representation of a proof.
// Digests are rendered with formatDigest,
// so hex-compatible digests appear as their own text.
type proofJSON struct {
	LeafHash  string     `json:"leaf_hash"`
	LeafIndex int        `json:"leaf_index"`
	Siblings  []stepJSON `json:"siblings"`
}

type stepJSON struct {
	Hash   string `json:"hash"`
	IsLeft bool   `json:"is_left"`
}

func (a *app) encodeProof(p hashtree.Proof) proofJSON {
	out := proofJSON{
		LeafHash:  a.formatDigest(p.LeafHash),
		LeafIndex: p.LeafIndex,
		Siblings:  make([]stepJSON, len(p.Siblings)),
	}
	for i, s := range p.Siblings {
		out.Siblings[i] = stepJSON{Hash: a.formatDigest(s.Hash), IsLeft: s.IsLeft}
	}
	return out
}

func (a *app) decodeProof(pj proofJSON) (hashtree.Proof, error) {
	leaf, err := a.parseDigest(pj.LeafHash)
	if err != nil {
		return hashtree.Proof{}, fmt.Errorf("invalid leaf_hash: %w", err)
	}

	p := hashtree.Proof{
		LeafHash:  leaf,
		LeafIndex: pj.LeafIndex,
		Siblings:  make([]hashtree.ProofStep, len(pj.Siblings)),
	}
	for i, s := range pj.Siblings {
		h, err := a.parseDigest(s.Hash)
		if err != nil {
			return hashtree.Proof{}, fmt.Errorf("invalid hash in sibling %d: %w", i, err)
		}
		p.Siblings[i] = hashtree.ProofStep{Hash: h, IsLeft: s.IsLeft}
	}
	return p, nil
}
