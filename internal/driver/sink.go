package driver

import "vigil/internal/ui"

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(ui.Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- ui.Event
}

func (s ChannelSink) OnEvent(evt ui.Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, evt ui.Event) {
	if sink == nil {
		return
	}
	sink.OnEvent(evt)
}
