package platform

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Channel is one streaming destination: a display identity plus the RTMP
// base URL and the per-channel stream key the supervisor appends to it.
type Channel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Emoji     string `json:"emoji"`
	URL       string `json:"url"`
	StreamKey string `json:"streamKey"`
}

// Service reads the destination catalog from a JSON config file on every
// request, so channels can be edited without restarting the server.
type Service struct {
	file string
}

func NewService(file string) *Service {
	return &Service{file: file}
}

// Channels loads the catalog. A missing file is not an error; the catalog is
// just empty until one is written.
func (s *Service) Channels() ([]Channel, error) {
	data, err := os.ReadFile(s.file)
	if err != nil {
		if os.IsNotExist(err) {
			return []Channel{}, nil
		}
		return nil, errors.Wrapf(err, "reading %s", s.file)
	}

	var channels []Channel
	if err := json.Unmarshal(data, &channels); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", s.file)
	}
	return channels, nil
}
