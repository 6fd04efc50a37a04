package privacysuite

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewFingerprint()", func() {
	It("draws every field from its catalog", func() {
		fp := NewFingerprint()

		Expect(userAgents).To(ContainElement(fp.UserAgent))
		Expect(acceptLanguages).To(ContainElement(fp.AcceptLanguage))
		Expect(screenResolutions).To(ContainElement(fp.ScreenResolution))
		Expect(timezones).To(ContainElement(fp.Timezone))
		Expect(fp.AcceptEncoding).To(Equal(fixedAcceptEncoding))
	})
})
