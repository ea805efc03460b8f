package log

import (
	"os"

	"github.com/healthybites/healthybites/utils/dotenv"
	"github.com/healthybites/healthybites/utils/flag"
	"github.com/sirupsen/logrus"
)

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// This init function is only for testing cases, where the entry point is not
// main function. Unit test will fail with nil pointer dereference if we don't
// init here.
func init() {
	InitLogger()
}

func InitLogger() {
	logger = logrus.New()

	// JSON in prod for log collection, plain text elsewhere for readability.
	if os.Getenv("HEALTHYBITES_ENV") == dotenv.ProdEnv {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.SetOutput(os.Stderr)

	Log = logger.WithFields(
		logrus.Fields{"service": *flag.ServiceName, "is_development": os.Getenv("HEALTHYBITES_ENV") != dotenv.ProdEnv},
	)
}
