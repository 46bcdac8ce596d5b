//go:build integration

package integration

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospease/hospease/internal/domain/prescription"
	"github.com/hospease/hospease/internal/platform/metrics"
	"github.com/hospease/hospease/internal/platform/notification"
)

func TestPrescription_CreateRendersAndMailsPDF(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	sender := &notification.MockEmailSender{}
	notifier := notification.NewNotifier(sender, nil, nopLogger(), metrics.New())
	svc := prescription.NewService(prescription.NewRepoPG(globalPool), notifier, nopLogger())

	p := &prescription.Prescription{
		PatientID: f.patients[0].ID,
		DoctorID:  f.doctor.ID,
		Diagnosis: "Seasonal allergic rhinitis",
		Medications: []prescription.Medication{
			{Name: "Cetirizine", Dosage: "10mg", Frequency: "once daily", DurationDays: 7},
		},
	}
	require.NoError(t, svc.Create(ctx, p))
	notifier.Wait()

	stored, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, stored.Medications, 1)
	assert.Equal(t, "Cetirizine", stored.Medications[0].Name)

	pdf, err := svc.PDF(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	calls := sender.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, *f.patients[0].Email, calls[0].To)
	require.Len(t, calls[0].Attachments, 1)
	assert.Equal(t, "application/pdf", calls[0].Attachments[0].ContentType)
}

func TestPrescription_UnknownPatient(t *testing.T) {
	f := newFixture(t, 0)
	svc := prescription.NewService(prescription.NewRepoPG(globalPool), nil, nopLogger())

	err := svc.Create(context.Background(), &prescription.Prescription{
		PatientID: uuid.New(),
		DoctorID:  f.doctor.ID,
		Diagnosis: "Checkup",
	})
	assert.True(t, errors.Is(err, prescription.ErrInvalidReference), "got %v", err)
}
