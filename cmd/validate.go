package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/al002/zbencode/internal/config"
	"github.com/al002/zbencode/pkg/bencode"
	"github.com/spf13/cobra"
)

var errNotValid = errors.New("input is not valid bencode")

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check that a file is valid, canonical bencode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		logger.Info("Starting validation...", "file", args[0])

		if err := validate(cmd.OutOrStdout(), &cfg.Decode, data); err != nil {
			logger.Error("Validation failed", "file", args[0], "error", err)
			return err
		}

		logger.Info("Validation completed successfully", "file", args[0])
		return nil
	},
}

// validate decodes data strictly under the limits in c and reports to w.
// Input that decodes but does not re-encode to the same bytes is reported as
// non-canonical, which is not an error.
func validate(w io.Writer, c *config.DecodeConfig, data []byte) error {
	strict := *c
	strict.AllowUnsortedKeys = false

	d := strict.NewDecoder(data)

	v, err := d.Decode()
	if err == nil {
		err = d.ReadEOF()
	}

	if err != nil {
		var de *bencode.DecodeError
		if errors.As(err, &de) {
			fmt.Fprintf(w, "invalid: %v at offset %d\n", de.Err, de.Offset)
		}
		return fmt.Errorf("%w: %w", errNotValid, err)
	}

	out, err := bencode.Encode(v)
	if err != nil {
		return err
	}

	if bytes.Equal(out, data) {
		fmt.Fprintf(w, "valid: %s, canonical\n", v.Kind())
	} else {
		fmt.Fprintf(w, "valid: %s, not canonical\n", v.Kind())
	}

	return nil
}
