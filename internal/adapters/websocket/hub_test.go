package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerTestClient(t *testing.T, hub *Hub, userID, role string) *Client {
	client := NewClient(hub, nil, userID, role)
	hub.register <- client
	return client
}

func TestHub_RegisterDoctor(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	registerTestClient(t, hub, "doctor-1", "DOCTOR")

	require.Eventually(t, func() bool {
		return hub.GetConnectedDoctorCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestHub_PatientNotTrackedAsDoctor(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	registerTestClient(t, hub, "patient-1", "PATIENT")

	// Patients join the general client set but never the doctor map
	assert.Never(t, func() bool {
		return hub.GetConnectedDoctorCount() > 0
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestHub_BroadcastToDoctors(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	doctor := registerTestClient(t, hub, "doctor-1", "DOCTOR")
	patient := registerTestClient(t, hub, "patient-1", "PATIENT")

	require.Eventually(t, func() bool {
		return hub.GetConnectedDoctorCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastToDoctors([]byte(`{"alert_type":"hyperglycemia_major"}`))

	select {
	case msg := <-doctor.send:
		assert.Contains(t, string(msg), "hyperglycemia_major")
	case <-time.After(time.Second):
		t.Fatal("doctor did not receive broadcast")
	}

	select {
	case <-patient.send:
		t.Fatal("patient should not receive doctor broadcasts")
	default:
	}
}

func TestHub_SendToUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	doctor := registerTestClient(t, hub, "doctor-1", "DOCTOR")

	require.Eventually(t, func() bool {
		return hub.GetConnectedDoctorCount() == 1
	}, time.Second, 10*time.Millisecond)

	assert.True(t, hub.SendToUser("doctor-1", []byte("hello")))
	assert.False(t, hub.SendToUser("doctor-2", []byte("hello")))

	select {
	case msg := <-doctor.send:
		assert.Equal(t, "hello", string(msg))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	doctor := registerTestClient(t, hub, "doctor-1", "DOCTOR")

	require.Eventually(t, func() bool {
		return hub.GetConnectedDoctorCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.unregister <- doctor

	require.Eventually(t, func() bool {
		return hub.GetConnectedDoctorCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHub_CloseHookFiresOnceOnDisconnect(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	closed := make(chan struct{}, 2)
	doctor := NewClient(hub, nil, "doctor-1", "DOCTOR")
	doctor.SetCloseHook(func() { closed <- struct{}{} })
	hub.register <- doctor

	require.Eventually(t, func() bool {
		return hub.GetConnectedDoctorCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.unregister <- doctor

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("close hook not invoked on unregister")
	}

	// a duplicate unregister for an already-dropped client is a no-op
	hub.unregister <- doctor
	assert.Never(t, func() bool {
		select {
		case <-closed:
			return true
		default:
			return false
		}
	}, 100*time.Millisecond, 10*time.Millisecond)
}
