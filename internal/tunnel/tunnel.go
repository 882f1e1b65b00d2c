// Package tunnel forwards a local TCP port to a database host through an SSH server.
package tunnel

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/siddontang/go-log/log"
	"golang.org/x/crypto/ssh"
)

// Config describes the SSH jump host.
type Config struct {
	Key  string `mapstructure:"key"`
	User string `mapstructure:"user"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Enabled reports whether a jump host is configured.
func (c *Config) Enabled() bool {
	return c != nil && c.Host != ""
}

// Tunnel is an open forwarding. Addr is the local host:port to connect to.
type Tunnel struct {
	Addr     string
	listener net.Listener
	client   *ssh.Client
}

// Open dials the SSH server and starts forwarding a local port to remoteHost:remotePort.
func Open(cfg Config, remoteHost string, remotePort int) (*Tunnel, error) {
	key, err := os.ReadFile(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("unable to read private key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("unable to parse private key: %w", err)
	}

	port := cfg.Port
	if port == 0 {
		port = 22
	}

	sshConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	client, err := ssh.Dial("tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(port)), sshConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to SSH server: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to setup local listener: %w", err)
	}

	t := &Tunnel{Addr: listener.Addr().String(), listener: listener, client: client}
	remote := net.JoinHostPort(remoteHost, strconv.Itoa(remotePort))
	go t.serve(remote)

	log.Infof("ssh tunnel %s -> %s via %s", t.Addr, remote, cfg.Host)
	return t, nil
}

// Port is the local port of the forwarding.
func (t *Tunnel) Port() int {
	return t.listener.Addr().(*net.TCPAddr).Port
}

func (t *Tunnel) Close() error {
	lerr := t.listener.Close()
	if err := t.client.Close(); err != nil {
		return err
	}
	return lerr
}

func (t *Tunnel) serve(remote string) {
	for {
		local, err := t.listener.Accept()
		if err != nil {
			log.Debugf("ssh tunnel stopped accepting: %v", err)
			return
		}

		upstream, err := t.client.Dial("tcp", remote)
		if err != nil {
			log.Errorf("ssh tunnel: dialing %s: %v", remote, err)
			local.Close()
			continue
		}

		go copyConn(local, upstream)
		go copyConn(upstream, local)
	}
}

func copyConn(dst, src net.Conn) {
	defer dst.Close()
	defer src.Close()
	if _, err := io.Copy(dst, src); err != nil {
		log.Debugf("ssh tunnel copy: %v", err)
	}
}
