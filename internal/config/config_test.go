/*
Copyright 2026 The Sentinelguard Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Load", func() {
	var (
		tempDir    string
		configFile string
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "sentinelguard-config-test")
		Expect(err).NotTo(HaveOccurred())
		configFile = filepath.Join(tempDir, "config.yaml")
		os.Clearenv()
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
		os.Clearenv()
	})

	Context("when the config file exists with valid content", func() {
		BeforeEach(func() {
			valid := `
server:
  port: "8080"
logging:
  level: "debug"
  format: "text"
auth:
  jwt_secret: "from-file-secret"
data:
  directory: "/var/lib/sentinelguard"
use_mock_data: false
`
			Expect(os.WriteFile(configFile, []byte(valid), 0644)).To(Succeed())
		})

		It("loads every field", func() {
			cfg, err := Load(configFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Server.Port).To(Equal("8080"))
			Expect(cfg.Logging.Level).To(Equal("debug"))
			Expect(cfg.Auth.JWTSecret).To(Equal("from-file-secret"))
			Expect(cfg.Data.Directory).To(Equal("/var/lib/sentinelguard"))
		})
	})

	Context("when the config file has minimal content", func() {
		BeforeEach(func() {
			Expect(os.WriteFile(configFile, []byte("use_mock_data: true\n"), 0644)).To(Succeed())
		})

		It("fills in defaults for everything else", func() {
			cfg, err := Load(configFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Server.Port).To(Equal("5000"))
			Expect(cfg.Logging.Level).To(Equal("info"))
			Expect(cfg.Data.Directory).To(Equal("./data"))
		})
	})

	Context("when the config file does not exist", func() {
		It("falls back to defaults without error", func() {
			os.Setenv("USE_MOCK_DATA", "true")
			cfg, err := Load(filepath.Join(tempDir, "missing.yaml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Server.Port).To(Equal("5000"))
		})
	})

	Context("when the config file has invalid YAML", func() {
		BeforeEach(func() {
			Expect(os.WriteFile(configFile, []byte("server: [\n"), 0644)).To(Succeed())
		})

		It("returns a parse error", func() {
			_, err := Load(configFile)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to parse config file"))
		})
	})

	Context("when use_mock_data is false and no jwt secret is provided", func() {
		It("fails validation", func() {
			_, err := Load(filepath.Join(tempDir, "missing.yaml"))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("jwt secret is required"))
		})
	})
})

var _ = Describe("loadFromEnv", func() {
	var cfg *Config

	BeforeEach(func() {
		cfg = defaults()
		os.Clearenv()
	})

	AfterEach(func() {
		os.Clearenv()
	})

	Context("when environment variables are set", func() {
		BeforeEach(func() {
			os.Setenv("PORT", "3000")
			os.Setenv("JWT_SECRET", "env-secret")
			os.Setenv("USE_MOCK_DATA", "true")
			os.Setenv("LOG_LEVEL", "warn")
		})

		It("overrides the defaults", func() {
			Expect(loadFromEnv(cfg)).To(Succeed())
			Expect(cfg.Server.Port).To(Equal("3000"))
			Expect(cfg.Auth.JWTSecret).To(Equal("env-secret"))
			Expect(cfg.UseMockData).To(BeTrue())
			Expect(cfg.Logging.Level).To(Equal("warn"))
		})
	})

	Context("when USE_MOCK_DATA is not a boolean", func() {
		BeforeEach(func() {
			os.Setenv("USE_MOCK_DATA", "sure")
		})

		It("returns an error", func() {
			Expect(loadFromEnv(cfg)).To(HaveOccurred())
		})
	})

	Context("when no environment variables are set", func() {
		It("leaves the config untouched", func() {
			before := *cfg
			Expect(loadFromEnv(cfg)).To(Succeed())
			Expect(*cfg).To(Equal(before))
		})
	})
})
