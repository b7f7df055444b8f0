package bootstrap

import "fmt"

const (
	StepInstallCurl    = "install-curl"
	StepSetupRuntime   = "setup-runtime-repository"
	StepInstallRuntime = "install-runtime"
	StepWriteServer    = "write-server"
	StepStartServer    = "start-server"

	DefaultRuntimeSetupURL = "https://rpm.nodesource.com/setup_14.x"
	DefaultServerPath      = "/home/ec2-user/server.js"
	DefaultServerPort      = 80
)

// WebServer configures the HTTP responder every instance starts.
type WebServer struct {
	RuntimeSetupURL string
	ServerPath      string
	Port            int
}

// DefaultWebServer returns the responder listening on port 80.
func DefaultWebServer() WebServer {
	return WebServer{
		RuntimeSetupURL: DefaultRuntimeSetupURL,
		ServerPath:      DefaultServerPath,
		Port:            DefaultServerPort,
	}
}

// Source returns the responder program. It answers every request with the
// caller's address.
func (w WebServer) Source() string {
	return fmt.Sprintf(`const http = require('http');
const server = http.createServer((req, res) => {
  res.writeHead(200, {'Content-Type': 'text/plain'});
  const ip = req.connection.remoteAddress;
  res.end(`+"`Hello, your IP address is: ${ip}`"+`);
});
server.listen(%d, '0.0.0.0', () => {
  console.log('Server running at http://0.0.0.0:%d/');
});`, w.Port, w.Port)
}

// Script returns the first boot script: install the runtime, write the
// responder and start it.
func (w WebServer) Script() *Script {
	return ForLinux().Add(
		InstallPackages(StepInstallCurl, "curl"),
		PipeToShell(StepSetupRuntime, w.RuntimeSetupURL),
		InstallPackages(StepInstallRuntime, "nodejs"),
		WriteFile(StepWriteServer, w.ServerPath, w.Source()),
		Background(StepStartServer, "node "+w.ServerPath),
	)
}
