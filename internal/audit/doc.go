// Package audit implements async delivery of security-relevant events.
//
// The Engine decides which events exist and when they fire; this package
// only owns buffering and sink delivery. Sinks ship in three flavors:
// [NoOpSink] for disabled installs, [ChannelSink] for in-process consumers,
// and [JSONWriterSink] for line-delimited log shipping.
//
// The [Dispatcher] relays events on a background goroutine so that slow
// sinks never sit on the authentication hot path.
package audit
