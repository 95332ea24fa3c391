package provision

import (
	"bytes"
	"fmt"
	"text/template"
)

// AgentVersion is the agent release installed by the user data script.
const AgentVersion = "0.1.0"

// UserDataParams holds the substitution values for the cloud-init template.
type UserDataParams struct {
	// Hostname is set as the system hostname.
	Hostname string
	// APIKey is the shared secret written to the agent's environment file.
	// It appears nowhere else on the server and is never logged.
	APIKey string
	// Port is the agent listen port; defaults to DefaultAgentPort.
	Port int
	// Version overrides the agent release to install (defaults to
	// AgentVersion).
	Version string
}

// RenderUserData renders the cloud-init user data script that installs and
// starts the Gloski agent.
func RenderUserData(p UserDataParams) (string, error) {
	if p.Hostname == "" {
		return "", fmt.Errorf("hostname is required")
	}
	if p.APIKey == "" {
		return "", fmt.Errorf("api key is required")
	}
	if p.Port <= 0 {
		p.Port = DefaultAgentPort
	}
	if p.Version == "" {
		p.Version = AgentVersion
	}

	tmpl, err := template.New("userdata").Parse(userDataTemplate)
	if err != nil {
		return "", fmt.Errorf("parse user data template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render user data template: %w", err)
	}

	return buf.String(), nil
}

// userDataTemplate is the cloud-init bash script that:
//   - Hardens SSH (no root login, no password auth)
//   - Configures UFW firewall (SSH plus the agent port)
//   - Installs fail2ban with SSH jail
//   - Creates a 'gloski' system user for the agent
//   - Downloads the agent binary for the server architecture
//   - Writes the agent environment file (API key, listen port)
//   - Installs and starts the gloski-agent systemd unit
const userDataTemplate = `#!/bin/bash
set -euo pipefail

HOSTNAME_VAL="{{ .Hostname }}"
AGENT_PORT="{{ .Port }}"
AGENT_VERSION="{{ .Version }}"

log() { echo "[gloski] $*" >&2; }

log "=== Starting gloski agent setup ==="

# ── Hostname ─────────────────────────────────────────────────────────────────
hostnamectl set-hostname "$HOSTNAME_VAL"
printf '127.0.1.1\t%s\n' "$HOSTNAME_VAL" >> /etc/hosts

# ── System update ─────────────────────────────────────────────────────────────
export DEBIAN_FRONTEND=noninteractive
apt-get update -y
apt-get upgrade -y

apt-get install -y \
  curl \
  wget \
  ufw \
  fail2ban

log "=== Base packages installed ==="

# ── SSH hardening ─────────────────────────────────────────────────────────────
# Drop-in config to avoid conflicting with the base sshd_config.
cat > /etc/ssh/sshd_config.d/99-hardening.conf << 'SSHEOF'
PermitRootLogin prohibit-password
PasswordAuthentication no
ChallengeResponseAuthentication no
X11Forwarding no
MaxAuthTries 3
LoginGraceTime 30
SSHEOF

# Restart via the correct service name (varies by Ubuntu release)
systemctl restart ssh 2>/dev/null || systemctl restart sshd 2>/dev/null || true
log "=== SSH hardened ==="

# ── Firewall (UFW) ─────────────────────────────────────────────────────────────
ufw default deny incoming
ufw default allow outgoing
ufw allow 22/tcp              # SSH
ufw allow "$AGENT_PORT"/tcp   # gloski agent API
ufw --force enable
log "=== Firewall configured ==="

# ── Fail2ban ──────────────────────────────────────────────────────────────────
cat > /etc/fail2ban/jail.local << 'F2BEOF'
[DEFAULT]
bantime  = 1h
findtime = 10m
maxretry = 5

[sshd]
enabled = true
F2BEOF

systemctl enable fail2ban
systemctl start fail2ban
log "=== Fail2ban configured ==="

# ── Agent user ────────────────────────────────────────────────────────────────
useradd --system --no-create-home --shell /usr/sbin/nologin gloski || true
log "=== Agent user created ==="

# ── Agent binary ──────────────────────────────────────────────────────────────
ARCH=$(dpkg --print-architecture)
case "$ARCH" in
  amd64|arm64) ;;
  *) log "ERROR: unsupported architecture $ARCH"; exit 1 ;;
esac

wget -qO /usr/local/bin/gloski-agent \
  "https://github.com/gloski/agent/releases/download/v${AGENT_VERSION}/gloski-agent_linux_${ARCH}"
chmod +x /usr/local/bin/gloski-agent
log "=== Agent binary installed ($(/usr/local/bin/gloski-agent --version 2>/dev/null || echo v$AGENT_VERSION)) ==="

# ── Agent configuration ───────────────────────────────────────────────────────
# The API key lives only here. systemd reads the file as root before
# dropping to the gloski user, so 0600 root:root is sufficient.
mkdir -p /etc/gloski
cat > /etc/gloski/agent.env << 'ENVEOF'
GLOSKI_API_KEY={{ .APIKey }}
GLOSKI_LISTEN=:{{ .Port }}
ENVEOF
chmod 0600 /etc/gloski/agent.env
log "=== Agent configured ==="

# ── Agent service ─────────────────────────────────────────────────────────────
cat > /etc/systemd/system/gloski-agent.service << 'UNITEOF'
[Unit]
Description=Gloski server agent
After=network.target

[Service]
Type=simple
User=gloski
EnvironmentFile=/etc/gloski/agent.env
ExecStart=/usr/local/bin/gloski-agent
Restart=always
RestartSec=5
NoNewPrivileges=true
ProtectSystem=full
ProtectHome=true

[Install]
WantedBy=multi-user.target
UNITEOF

systemctl daemon-reload
systemctl enable gloski-agent
systemctl start gloski-agent
log "=== Agent service started ==="

# ── Final summary ─────────────────────────────────────────────────────────────
PUBLIC_IP=$(curl -s --max-time 5 ifconfig.me 2>/dev/null || echo '<public-ip>')

log "=== gloski agent setup complete ==="
log ""
log "  Hostname : $HOSTNAME_VAL"
log "  Agent    : http://$PUBLIC_IP:$AGENT_PORT"
log "  Health   : http://$PUBLIC_IP:$AGENT_PORT/api/health"
log ""
log "  The API key was written to /etc/gloski/agent.env and is not logged."
`
