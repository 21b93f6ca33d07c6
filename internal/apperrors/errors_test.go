package apperrors

import (
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestApperrors(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Structured Errors Suite")
}

var _ = Describe("AppError", func() {
	Context("basic error creation", func() {
		It("creates an error with correct properties", func() {
			err := New(ErrorTypeValidation, "test message")

			Expect(err.Type).To(Equal(ErrorTypeValidation))
			Expect(err.Message).To(Equal("test message"))
			Expect(err.StatusCode).To(Equal(400))
			Expect(err.Details).To(BeEmpty())
			Expect(err.Cause).To(BeNil())
		})

		It("implements the error interface", func() {
			err := New(ErrorTypeValidation, "test message")
			Expect(err.Error()).To(Equal("validation: test message"))
		})

		It("includes details in the error string when present", func() {
			err := New(ErrorTypeValidation, "test message").WithDetails("extra info")
			Expect(err.Error()).To(Equal("validation: test message (extra info)"))
		})
	})

	Context("wrapping", func() {
		It("wraps an underlying error", func() {
			original := errors.New("original error")
			wrapped := Wrap(original, ErrorTypePersistence, "operation failed")

			Expect(wrapped.Type).To(Equal(ErrorTypePersistence))
			Expect(wrapped.Cause).To(Equal(original))
			Expect(wrapped.Unwrap()).To(Equal(original))
		})

		It("formats wrapped messages", func() {
			original := errors.New("connection refused")
			wrapped := Wrapf(original, ErrorTypeTransientExternal, "failed to reach %s:%d", "effector", 443)

			Expect(wrapped.Message).To(Equal("failed to reach effector:443"))
			Expect(wrapped.Cause).To(Equal(original))
		})
	})

	Context("status code mapping", func() {
		It("maps every error type to its documented status code", func() {
			cases := map[ErrorType]int{
				ErrorTypeValidation:        400,
				ErrorTypeAuth:              401,
				ErrorTypeNotFound:          404,
				ErrorTypeConflict:          409,
				ErrorTypeTransientExternal: 502,
				ErrorTypePermanentExternal: 502,
				ErrorTypePersistence:       500,
				ErrorTypeInternal:          500,
			}
			for t, code := range cases {
				Expect(New(t, "x").StatusCode).To(Equal(code))
			}
		})
	})

	Context("type checking helpers", func() {
		It("identifies types correctly", func() {
			validationErr := NewValidationError("test")
			authErr := NewAuthError("test")

			Expect(IsType(validationErr, ErrorTypeValidation)).To(BeTrue())
			Expect(IsType(validationErr, ErrorTypeAuth)).To(BeFalse())
			Expect(IsType(authErr, ErrorTypeAuth)).To(BeTrue())
		})

		It("treats foreign errors as internal", func() {
			regular := errors.New("regular error")
			Expect(IsType(regular, ErrorTypeValidation)).To(BeFalse())
			Expect(GetType(regular)).To(Equal(ErrorTypeInternal))
			Expect(GetStatusCode(regular)).To(Equal(500))
		})
	})

	Context("safe error messages", func() {
		It("passes validation messages through", func() {
			err := NewValidationError("specific validation message")
			Expect(SafeErrorMessage(err)).To(Equal("specific validation message"))
		})

		It("genericizes everything else", func() {
			Expect(SafeErrorMessage(New(ErrorTypeNotFound, "x"))).To(Equal(ErrorMessages.ResourceNotFound))
			Expect(SafeErrorMessage(New(ErrorTypeAuth, "x"))).To(Equal(ErrorMessages.AuthenticationFailed))
			Expect(SafeErrorMessage(New(ErrorTypeConflict, "x"))).To(Equal(ErrorMessages.ConcurrentModification))
		})

		It("returns a generic message for non-AppError values", func() {
			Expect(SafeErrorMessage(errors.New("internal panic"))).To(Equal("An unexpected error occurred"))
		})
	})
})
