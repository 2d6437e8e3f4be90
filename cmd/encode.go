package cmd

import (
	"bytes"

	"github.com/al002/zbencode/internal/config"
	"github.com/al002/zbencode/internal/transcode"
	"github.com/al002/zbencode/pkg/bencode"
	"github.com/spf13/cobra"
)

var (
	encodeFrom string
	encodeOut  string
)

var encodeCmd = &cobra.Command{
	Use:   "encode <file>",
	Short: "Encode json, cbor or msgpack into canonical bencode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := transcode.ParseFormat(encodeFrom)
		if err != nil {
			return err
		}

		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		out, err := encodeFromFormat(&cfg.Encode, data, f)
		if err != nil {
			return err
		}

		logger.Debug("Encoded input", "file", args[0], "format", f, "bytes", len(out))

		return writeOutput(cmd, encodeOut, out)
	},
}

func init() {
	encodeCmd.Flags().StringVar(&encodeFrom, "from", string(transcode.JSON), "input format: json, cbor or msgpack")
	encodeCmd.Flags().StringVarP(&encodeOut, "out", "o", "", "output file (default is stdout)")
}

func encodeFromFormat(c *config.EncodeConfig, data []byte, f transcode.Format) ([]byte, error) {
	v, err := transcode.Unmarshal(f, data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	e := bencode.NewEncoder(&buf)
	e.MaxStrLen = c.MaxStringLength

	if err := e.Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
