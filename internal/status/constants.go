// internal/status/constants.go
package status

// Indicator Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerBlock is the fixed number of registers in the indicator block.
const SlotsPerBlock = 40

// MaxChannels is the number of channel slots in the block.
const MaxChannels = 20

// ---- SLOT INDICES ----

// SlotConnection holds the backend connection code.
const SlotConnection = 0

// SlotWorstResult holds the aggregate worst result.
const SlotWorstResult = 1

// SlotActiveState holds the aggregate most active state.
const SlotActiveState = 2

// SlotSoundSeq increments whenever a sound starts.
const SlotSoundSeq = 3

// SlotSoundCode identifies the last sound started.
const SlotSoundCode = 4

// SlotSecondsConnected holds the duration (in seconds) of the current connection.
const SlotSecondsConnected = 5

// SlotChannelCount holds the number of configured channels.
const SlotChannelCount = 6

// ---- RESERVED RANGE ----

// Slots 7-9 and 30-31 are reserved for future use.
const SlotReservedStart = 7
const SlotReservedEnd = 9

// ---- CHANNELS ----

// SlotChannelStart is the first per-channel slot. Channel i lives at
// SlotChannelStart+i, see ChannelWord.
const SlotChannelStart = 10

// SlotChannelEnd is the last per-channel slot (inclusive).
const SlotChannelEnd = SlotChannelStart + MaxChannels - 1

// ---- CLIENT NAME ----

// SlotNameStart is the first slot used for the client name.
// The name is always placed at the END of the block.
const SlotNameStart = 32

// SlotNameSlots is the number of slots reserved for the name.
const SlotNameSlots = 8

// SlotNameEnd is the last slot used for the name (inclusive).
const SlotNameEnd = SlotNameStart + SlotNameSlots - 1

// ---- LIMITS ----

// NameMaxChars is the maximum number of ASCII characters stored for the name.
const NameMaxChars = 16

// ---- CONNECTION CODES ----

// ConnOffline: no connection to the backend (connecting or waiting to retry).
const ConnOffline uint16 = 0

// ConnWaiting: connected, waiting for the handshake.
const ConnWaiting uint16 = 1

// ConnConnected: handshake received.
const ConnConnected uint16 = 2

// ConnOkay: receiving updates.
const ConnOkay uint16 = 3

// ConnFailed: the connection ended in error, reconnect or overflow.
const ConnFailed uint16 = 4

// ---- CHANNEL WORD ----

// ChannelActive is set in the channel word of a channel with a job.
const ChannelActive uint16 = 0x8000
