package validator

import "strconv"

// portNames maps well-known port numbers to the service names used in
// blocked-port and high-risk messages.
var portNames = map[int]string{
	21:    "FTP",
	22:    "SSH",
	23:    "Telnet",
	25:    "SMTP",
	53:    "DNS",
	80:    "HTTP",
	110:   "POP3",
	135:   "NetBIOS/RPC",
	139:   "NetBIOS/SMB",
	143:   "IMAP",
	443:   "HTTPS",
	445:   "SMB",
	993:   "IMAPS",
	995:   "POP3S",
	1433:  "MSSQL",
	3306:  "MySQL",
	3389:  "RDP",
	5432:  "PostgreSQL",
	6379:  "Redis",
	27017: "MongoDB",
}

// dbPort pairs a database port with its name, ordered for deterministic
// warning output.
type dbPort struct {
	port int
	name string
}

var dbPorts = []dbPort{
	{3306, "MySQL"},
	{5432, "PostgreSQL"},
	{1433, "MSSQL"},
	{27017, "MongoDB"},
	{6379, "Redis"},
}

// portDescription returns "443 (HTTPS)" for known ports, the bare number
// otherwise.
func portDescription(port int) string {
	if name, ok := portNames[port]; ok {
		return strconv.Itoa(port) + " (" + name + ")"
	}
	return strconv.Itoa(port)
}
