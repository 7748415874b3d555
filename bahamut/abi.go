package bahamut

// RouletteABI is the subset of the deployed roulette contract used here.
const RouletteABI = `[
	{"type":"function","name":"bet","stateMutability":"payable","inputs":[{"name":"_betOnRed","type":"bool"},{"name":"_amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"withdrawFunds","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"pendingWithdrawalsFTN","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"pendingWithdrawalsLBR","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"waitingForResult","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"event","name":"BetPlaced","anonymous":false,"inputs":[
		{"name":"player","type":"address","indexed":true},
		{"name":"betOnRed","type":"bool","indexed":false},
		{"name":"isFTNBet","type":"bool","indexed":false},
		{"name":"requestId","type":"uint256","indexed":false},
		{"name":"betValue","type":"uint256","indexed":false}]},
	{"type":"event","name":"ResultGenerated","anonymous":false,"inputs":[
		{"name":"player","type":"address","indexed":true},
		{"name":"won","type":"bool","indexed":false},
		{"name":"result","type":"uint8","indexed":false},
		{"name":"isFTNBet","type":"bool","indexed":false},
		{"name":"betAmount","type":"uint256","indexed":false},
		{"name":"payoutFTN","type":"uint256","indexed":false},
		{"name":"payoutLBR","type":"uint256","indexed":false}]},
	{"type":"event","name":"FundsWithdrawn","anonymous":false,"inputs":[
		{"name":"player","type":"address","indexed":true},
		{"name":"ftnAmount","type":"uint256","indexed":false},
		{"name":"lbrAmount","type":"uint256","indexed":false}]}
]`

// ERC20ABI covers the LBR calls needed to bet with it.
const ERC20ABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`
