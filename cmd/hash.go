package cmd

import (
	"fmt"

	"github.com/al002/zbencode/internal/config"
	"github.com/al002/zbencode/pkg/bencode"
	"github.com/spf13/cobra"
)

var hashCmd = &cobra.Command{
	Use:   "hash <file> [key...]",
	Short: "Print the SHA-1 of a value, or of the value at a dict key path",
	Long: `Print the hex SHA-1 digest of the encoded bytes of a value.

With no keys the whole input is hashed. Keys walk nested dicts, so
"zbencode hash file.torrent info" prints the info hash.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		h, err := hashPath(&cfg.Decode, data, args[1:])
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), h.HexString())
		return err
	},
}

func hashPath(c *config.DecodeConfig, data []byte, path []string) (bencode.Hash, error) {
	s, err := c.NewDecoder(data).FindSpan(path...)
	if err != nil {
		return bencode.Hash{}, err
	}

	return bencode.HashSpan(data, s)
}
