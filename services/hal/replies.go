package hal

import (
	"tinyfx-go/bus"
	"tinyfx-go/errcode"
	"tinyfx-go/types"
	"tinyfx-go/x/timex"
)

func (s *service) replyOK(m *bus.Message) {
	if m.CanReply() {
		s.conn.Reply(m, types.OKReply{OK: true}, false)
	}
}

// replyValue answers with the capability's value payload.
func (s *service) replyValue(m *bus.Message, v any) {
	if m.CanReply() {
		s.conn.Reply(m, v, false)
	}
}

func (s *service) replyErr(m *bus.Message, code errcode.Code) {
	if !m.CanReply() {
		return
	}
	if code == "" || code == errcode.OK {
		code = errcode.Error
	}
	s.conn.Reply(m, types.ErrorReply{OK: false, Error: string(code)}, false)
}

func (s *service) pubRet(t bus.Topic, p any) {
	s.conn.Publish(s.conn.NewMessage(t, p, true))
}

func (s *service) publishState(level, status string) {
	s.pubRet(topicState(), types.HALState{Level: level, Status: status, TS: timex.NowMs()})
}

func (s *service) publishStatus(c capKey, link types.Link, err error) {
	st := types.CapabilityStatus{Link: link, TS: timex.NowMs()}
	if err != nil {
		st.Error = string(errcode.Of(err))
	}
	s.pubRet(capStatus(c), st)
}
