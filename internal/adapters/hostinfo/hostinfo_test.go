package hostinfo

import (
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/host"
)

func TestResolve(t *testing.T) {
	orig := info
	t.Cleanup(func() { info = orig })

	tests := []struct {
		name     string
		override string
		stub     func() (*host.InfoStat, error)
		want     string
		wantErr  bool
	}{
		{
			name:     "override wins",
			override: " web-1 ",
			stub:     func() (*host.InfoStat, error) { t.Fatal("info called"); return nil, nil },
			want:     "web-1",
		},
		{
			name: "from os",
			stub: func() (*host.InfoStat, error) { return &host.InfoStat{Hostname: "box"}, nil },
			want: "box",
		},
		{
			name:    "os failure",
			stub:    func() (*host.InfoStat, error) { return nil, errors.New("boom") },
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info = tc.stub
			got, err := Resolve(tc.override)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
