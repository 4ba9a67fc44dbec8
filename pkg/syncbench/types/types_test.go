package types

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain bytes", input: "1024", want: 1024},
		{name: "zero bytes", input: "0", want: 0},
		{name: "bytes with B suffix", input: "512B", want: 512},
		{name: "kilobytes", input: "100K", want: 100 * KiB},
		{name: "kilobytes with iB", input: "100KiB", want: 100 * KiB},
		{name: "megabytes lowercase", input: "50m", want: 50 * MiB},
		{name: "gigabytes with B", input: "2GB", want: 2 * GiB},
		{name: "terabytes", input: "1T", want: TiB},
		{name: "surrounding whitespace", input: "  100M  ", want: 100 * MiB},
		{name: "decimal values truncated", input: "1.5G", want: 1610612736},

		{name: "empty string", input: "", wantErr: true},
		{name: "invalid suffix", input: "100X", wantErr: true},
		{name: "negative value", input: "-100M", wantErr: true},
		{name: "suffix only", input: "M", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatSize(0))
	assert.Equal(t, "0 B", FormatSize(-5))
	assert.Equal(t, "500 B", FormatSize(500))
	assert.Equal(t, "1.0 KiB", FormatSize(1024))
	assert.Equal(t, "1.5 MiB", FormatSize(1536*1024))
}

func TestTrafficSample_Line(t *testing.T) {
	s := TrafficSample{
		Start:     0,
		End:       2 * time.Second,
		SentBytes: uint64(MiB),
		RecvBytes: uint64(4 * MiB),
	}

	assert.Equal(t,
		"[ 0.0 - 2.0 sec] sent 1.00 MB, up_bandwidth 0.5000 MB/s, recv 4.00 MB, down_bandwidth 2.0000 MB/s",
		s.Line())
}

func TestTrafficSample_ZeroInterval(t *testing.T) {
	s := TrafficSample{Start: time.Second, End: time.Second, SentBytes: 10}
	assert.Zero(t, s.UpMBps())
	assert.Zero(t, s.DownMBps())
}

func TestTransferRow_Record(t *testing.T) {
	r := TransferRow{RunTime: 1500 * time.Millisecond, SizeBytes: 2048}
	rec := r.Record()
	require.Len(t, rec, len(TransferHeader))
	assert.Equal(t, "1.500000", rec[0])
	assert.Equal(t, "2.0 KiB", rec[1])
}

func TestResourceSample_Record(t *testing.T) {
	s := ResourceSample{
		Time:       time.Date(2024, 1, 5, 13, 4, 5, 0, time.Local),
		CPUPercent: 12.34,
		MemPercent: 50,
		BytesSent:  uint64(3 * MiB),
	}
	rec := s.Record()
	require.Len(t, rec, len(ResourceHeader))
	assert.Equal(t, "13:04:05", rec[0])
	assert.Equal(t, "12.3", rec[1])
	assert.True(t, strings.HasPrefix(rec[3], "3.0"))
}
