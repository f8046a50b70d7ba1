package audit

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"farmquick/pkg/s3"
	"farmquick/services/farm"
)

// archiveKey lays events out by log type and month.
func archiveKey(evt farm.LogCreated) string {
	ts := evt.Timestamp.UTC()
	return fmt.Sprintf("logs/%s/%04d/%02d/%s.json.zst", evt.Type, ts.Year(), int(ts.Month()), evt.LogID)
}

func archiveObject(evt farm.LogCreated, payload []byte) (s3.Object, error) {
	body, err := compress(payload)
	if err != nil {
		return s3.Object{}, err
	}
	return s3.Object{
		Key:             archiveKey(evt),
		Body:            body,
		ContentType:     "application/json",
		ContentEncoding: "zstd",
		Metadata: map[string]string{
			"log-type": evt.Type,
			"quick":    evt.Quick,
		},
	}, nil
}

func compress(payload []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(payload, make([]byte, 0, len(payload))), nil
}
