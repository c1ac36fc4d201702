// Copyright 2026 Northern.tech AS
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package server

import (
	"context"

	"github.com/mendersoftware/go-lib-micro/log"
	natsio "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rvmfleet/edgeconnect/app"
	"github.com/rvmfleet/edgeconnect/client/nats"
	"github.com/rvmfleet/edgeconnect/model"
)

const heartbeatsChanSize = 256

// SubscribeHeartbeats subscribes to the heartbeats subject and records
// every heartbeat received until ctx is done
func SubscribeHeartbeats(
	ctx context.Context,
	edgeConnectApp app.App,
	natsClient nats.Client,
) (<-chan struct{}, error) {
	msgs := make(chan *natsio.Msg, heartbeatsChanSize)
	sub, err := natsClient.ChanSubscribe(model.HeartbeatsSubject, msgs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to subscribe to heartbeats")
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		ConsumeHeartbeats(ctx, edgeConnectApp, msgs)
		_ = sub.Unsubscribe()
	}()
	return done, nil
}

// ConsumeHeartbeats records the msgpack encoded heartbeats read from msgs
// until ctx is done or msgs is closed. Malformed or rejected heartbeats are
// logged and dropped.
func ConsumeHeartbeats(ctx context.Context, edgeConnectApp app.App, msgs <-chan *natsio.Msg) {
	l := log.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			hb := &model.Heartbeat{}
			if err := msgpack.Unmarshal(msg.Data, hb); err != nil {
				l.Errorf("failed to decode heartbeat: %s", err.Error())
				continue
			}
			_, err := edgeConnectApp.RecordHeartbeat(ctx, hb)
			if err == app.ErrDeviceNotFound {
				l.Warnf("heartbeat from unknown device %q", hb.DeviceID)
			} else if err != nil {
				l.F(log.Ctx{"device_id": hb.DeviceID}).
					Errorf("failed to record heartbeat: %s", err.Error())
			}
		}
	}
}
