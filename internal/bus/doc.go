// Package bus is the message bus every terminal service talks through.
//
// Components:
//   - Bus: topic registry, broadcast and correlated request/response
//   - scheduler: unbounded FIFO of listener invocations, one goroutine each
//   - Message: a delivery; requests carry a one-shot Respond
//
// Features:
//   - Publish never blocks and never fails; a topic without listeners drops
//     the message
//   - A panicking listener is logged and does not affect the others
//   - Listeners of one message run concurrently in no fixed order; a
//     listener must not assume a sibling has already handled the message
//   - Call resolves with the first Respond; later ones return false
//   - Call timeouts fail with *TimeoutError (errors.Is ErrTimeout) naming
//     the topic and payload; a zero timeout waits indefinitely
//
// Example Usage:
//
//	b := bus.New(bus.WithLogger(log))
//	b.Listen(types.TopicGetAliases, "aliases", func(ctx context.Context, msg *bus.Message) {
//	    msg.Respond(types.AliasesResponse{Aliases: table})
//	})
//	resp, err := bus.CallAs[types.AliasesResponse](ctx, b, types.TopicGetAliases, nil, time.Second)
package bus
