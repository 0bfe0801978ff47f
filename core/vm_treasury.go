package core

// TreasuryAddress collects the gas fees every applied transaction pays. It
// is a fixed, well-known account rather than a miner-supplied beneficiary:
// this runtime's consensus layer (block rewards, validator payout) is out
// of scope, so fees simply accumulate here for whatever downstream process
// (e.g. a governance-controlled disbursement) consumes them.
var TreasuryAddress = Address{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}
