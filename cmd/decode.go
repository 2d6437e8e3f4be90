package cmd

import (
	"github.com/al002/zbencode/internal/config"
	"github.com/al002/zbencode/internal/transcode"
	"github.com/spf13/cobra"
)

var (
	decodeFormat string
	decodeOut    string
)

var decodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "Decode bencode into json, cbor or msgpack",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := transcode.ParseFormat(decodeFormat)
		if err != nil {
			return err
		}

		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		out, err := decodeTo(&cfg.Decode, data, f)
		if err != nil {
			return err
		}

		logger.Debug("Decoded input", "file", args[0], "bytes", len(data), "format", f)

		return writeOutput(cmd, decodeOut, out)
	},
}

func init() {
	decodeCmd.Flags().StringVarP(&decodeFormat, "format", "f", string(transcode.JSON), "output format: json, cbor or msgpack")
	decodeCmd.Flags().StringVarP(&decodeOut, "out", "o", "", "output file (default is stdout)")
}

func decodeTo(c *config.DecodeConfig, data []byte, f transcode.Format) ([]byte, error) {
	d := c.NewDecoder(data)

	v, err := d.Decode()
	if err != nil {
		return nil, err
	}

	if err := d.ReadEOF(); err != nil {
		return nil, err
	}

	out, err := transcode.Marshal(f, v)
	if err != nil {
		return nil, err
	}

	if f == transcode.JSON {
		out = append(out, '\n')
	}

	return out, nil
}
