package pipeline

import (
	"strings"

	"github.com/mailproof/mailproof/internal/model"
)

// checkCompliance runs the generic CAN-SPAM and accessibility checks
// that apply to every commercial email regardless of client.
func checkCompliance(email *model.Email) model.Compliance {
	c := model.Compliance{
		CANSPAM: model.CANSPAM{
			UnsubscribePresent:     email.HasUnsubscribe,
			PhysicalAddressPresent: email.HasPhysicalAddress,
		},
	}
	c.CANSPAM.Passed = c.CANSPAM.UnsubscribePresent && c.CANSPAM.PhysicalAddressPresent

	for _, img := range email.Images {
		if strings.TrimSpace(img.Alt) == "" {
			c.Accessibility.ImagesWithoutAlt++
		} else {
			c.Accessibility.ImagesWithAlt++
		}
	}
	c.Accessibility.Passed = c.Accessibility.ImagesWithoutAlt == 0

	c.Passed = c.CANSPAM.Passed && c.Accessibility.Passed
	return c
}
