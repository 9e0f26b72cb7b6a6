package asn1time

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thebagchi/x509der-go/lib/gmt"
	"github.com/thebagchi/x509der-go/lib/tags"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		seconds     uint64
		wantTag     uint8
		wantLength  int
		wantText    string
		wantErr     error
		generalized bool
	}{
		{
			name:       "epoch",
			seconds:    0,
			wantTag:    tags.UTC_TIME,
			wantLength: UTC_TIME_LENGTH,
			wantText:   "700101000000Z",
		},
		{
			name:       "sample not before",
			seconds:    1585162134,
			wantTag:    tags.UTC_TIME,
			wantLength: UTC_TIME_LENGTH,
			wantText:   "200325184854Z",
		},
		{
			name:       "year 2000",
			seconds:    951782400,
			wantTag:    tags.UTC_TIME,
			wantLength: UTC_TIME_LENGTH,
			wantText:   "000229000000Z",
		},
		{
			name:       "last second of 2049",
			seconds:    2524607999,
			wantTag:    tags.UTC_TIME,
			wantLength: UTC_TIME_LENGTH,
			wantText:   "491231235959Z",
		},
		{
			name:        "first second of 2050",
			seconds:     2524608000,
			wantTag:     tags.GENERALIZED_TIME,
			wantLength:  GENERALIZED_TIME_LENGTH,
			wantText:    "20500101000000Z",
			generalized: true,
		},
		{
			name:        "max timestamp",
			seconds:     MAX_TIMESTAMP,
			wantTag:     tags.GENERALIZED_TIME,
			wantLength:  GENERALIZED_TIME_LENGTH,
			wantText:    "99991231235959Z",
			generalized: true,
		},
		{
			name:    "one past max timestamp",
			seconds: MAX_TIMESTAMP + 1,
			wantErr: ErrNotRepresentable,
		},
		{
			name:    "max uint64",
			seconds: ^uint64(0),
			wantErr: ErrNotRepresentable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.seconds)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.generalized, got.Generalized())
			require.Equal(t, tt.wantLength, got.Length())

			buff := make([]byte, got.Length())
			require.NoError(t, got.Format(buff))
			require.Equal(t, tt.wantTag, buff[0])
			require.Equal(t, uint8(tt.wantLength-2), buff[1])
			require.Equal(t, tt.wantText, string(buff[2:]))
			require.Equal(t, tt.wantText, got.String())
		})
	}
}

func TestFromDecomposed(t *testing.T) {
	got, err := FromDecomposed(gmt.Parse(MAX_TIMESTAMP))
	require.NoError(t, err)
	require.Equal(t, int64(9999), got.Decomposed().Year())

	_, err = FromDecomposed(gmt.Parse(MAX_TIMESTAMP + 1))
	require.ErrorIs(t, err, ErrNotRepresentable)

	got, err = FromDecomposed(gmt.Decomposed{})
	require.EqualError(t, err, "zero decomposed time: timestamp not representable in ASN.1")
	require.ErrorIs(t, err, ErrNotRepresentable)
	require.Equal(t, Time{}, got)

	got, err = FromDecomposed(gmt.Parse(0))
	require.NoError(t, err)
	require.Equal(t, "700101000000Z", got.String())
}

func TestFormatUndersizedBuffer(t *testing.T) {
	test := func(seconds uint64, size int) {
		t.Run(fmt.Sprintf("SECONDS_%d_SIZE_%d", seconds, size), func(t *testing.T) {
			tm, err := New(seconds)
			require.NoError(t, err)
			require.Error(t, tm.Format(make([]byte, size)))
		})
	}
	test(0, 0)
	test(0, UTC_TIME_LENGTH-1)
	test(MAX_TIMESTAMP, UTC_TIME_LENGTH)
	test(MAX_TIMESTAMP, GENERALIZED_TIME_LENGTH-1)
}

func TestFormatLeavesTrailingBytes(t *testing.T) {
	tm, err := New(1585162134)
	require.NoError(t, err)
	buff := bytes.Repeat([]byte{'.'}, UTC_TIME_LENGTH+2)
	require.NoError(t, tm.Format(buff))
	require.Equal(t, "200325184854Z", string(buff[2:UTC_TIME_LENGTH]))
	require.Equal(t, "..", string(buff[UTC_TIME_LENGTH:]))
}

// TestAgainstTimePackage formats one instant per day up to MAX_TIMESTAMP,
// each at a different time of day, and compares with the time package.
func TestAgainstTimePackage(t *testing.T) {
	const lastUTCTime = 2524607999
	buff := make([]byte, GENERALIZED_TIME_LENGTH)
	for day := uint64(0); day <= MAX_TIMESTAMP/gmt.SECONDS_PER_DAY; day++ {
		seconds := day*gmt.SECONDS_PER_DAY + (day*7919)%gmt.SECONDS_PER_DAY
		tm, err := New(seconds)
		require.NoError(t, err)
		require.NoError(t, tm.Format(buff))

		var (
			oracle = time.Unix(int64(seconds), 0).UTC()
			layout = "060102150405Z"
		)
		if seconds > lastUTCTime {
			layout = "20060102150405Z"
		}
		expected := oracle.Format(layout)
		if string(buff[2:tm.Length()]) != expected {
			t.Fatalf("Format(%d) = %q, want %q", seconds, buff[2:tm.Length()], expected)
		}
	}
}
