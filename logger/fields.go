package logger

// Field keys shared by every service so log lines can be joined on them.
const (
	// Caller is the field key for the function that produced the message.
	Caller = "caller"
	// Duration is the field key containing the execution duration in milliseconds.
	Duration = "durationMs"
	// Endpoint is the field key for a remote endpoint (rpc, nats, redis).
	Endpoint = "endpoint"
	// Hostname is the field key for hostname.
	Hostname = "host"
	// Service is the field key for the running service name.
	Service = "svc"
	// Wallet is the field key for the player's wallet address.
	Wallet = "wallet_addr"
	// TxHash is the field key for a transaction hash.
	TxHash = "tx_hash"
	// Token is the field key for the bet token (FTN or LBR).
	Token = "token"
	// Amount is the field key for an amount in game units.
	Amount = "amount"
	// RedisKey is the field key for a redis key.
	RedisKey = "redis_key"
	// Subject is the field key for a nats subject.
	Subject = "subject"
	// URLPath is the field key containing the HTTP request path.
	URLPath = "url_path"
)
