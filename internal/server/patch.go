package server

import (
	"interview-practice-server/internal/domain"
	"interview-practice-server/internal/registry"
)

func registryContactPatch(c domain.Candidate) registry.Patch {
	name, email, phone := c.Name, c.Email, c.Phone
	return registry.Patch{Name: &name, Email: &email, Phone: &phone}
}

func registryStatusPatch(status domain.CandidateStatus) registry.Patch {
	return registry.Patch{Status: &status}
}

func registryPatchFrom(name, email, phone, status *string) registry.Patch {
	patch := registry.Patch{Name: name, Email: email, Phone: phone}
	if status != nil {
		switch domain.CandidateStatus(*status) {
		case domain.CandidateNotStarted, domain.CandidateInProgress, domain.CandidateCompleted:
			s := domain.CandidateStatus(*status)
			patch.Status = &s
		}
	}
	return patch
}
