//go:build linux

package cursor

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// x11Sampler queries the pointer on the root window. The connection is
// opened on first use and reopened after a failure.
type x11Sampler struct {
	conn *xgb.Conn
	root xproto.Window
}

func newPlatformSampler() Sampler {
	return &x11Sampler{}
}

func (s *x11Sampler) connect() bool {
	if s.conn != nil {
		return true
	}
	conn, err := xgb.NewConn()
	if err != nil {
		log.Debug("pointer sampling unavailable", "error", err)
		return false
	}
	s.conn = conn
	s.root = xproto.Setup(conn).DefaultScreen(conn).Root
	return true
}

func (s *x11Sampler) Sample() (Sample, bool) {
	if !s.connect() {
		return Sample{}, false
	}
	reply, err := xproto.QueryPointer(s.conn, s.root).Reply()
	if err != nil {
		s.conn.Close()
		s.conn = nil
		return Sample{}, false
	}
	return Sample{
		X:       int32(reply.RootX),
		Y:       int32(reply.RootY),
		Visible: reply.SameScreen,
	}, true
}
