// Package platform holds the host integrations the power strip needs
// outside the GPIO lines: restarting the device.
//
// On a Raspberry Pi style board the restarter runs the configured command
// (by default "systemctl reboot"). Under a supervisor without reboot
// rights, configure an empty command and the process exits with
// RestartExitCode for the supervisor to restart it.
package platform
