/*
Package oscfx applies parameter changes received over the network to a
running audio effect without interrupting the sound.

Concept

Two goroutines share a single bounded event channel:

    Control receiver - reads OSC datagrams from UDP socket, decodes them
    into parameter events and sends them to the channel;
    Render callback - called by the audio backend on its realtime thread,
    applies at most one pending event and runs the engine.

The render callback never blocks, allocates or logs. The channel is a
lock-free single-producer single-consumer ring which drops the oldest
event when it's full.

Components

    osc - decoder and encoder of OSC messages and bundles;
    control - extraction of events and the receiver loop;
    queue - the parameter event channel;
    render - the render callback;
    engine/echo - echo engine with feedback and millisecond parameters;
    backend/portaudio, backend/oto, backend/wav - audio backends;
    session - lifecycle of all the above.

Control messages

Engine parameters are addressed by message path. Value is the first float
argument normalized to [0, 1] and scaled into engine units:

    millisecond 0.2         - delay of 100 ms;
    feedback s_pressed 0.5  - feedback of 50%, gesture started.

Shutdown

Session stops the stream first, then closes the channel. Receiver notices
closed channel on the next send or receive timeout and returns.
*/
package oscfx
