package db

//noinspection SpellCheckingInspection
const pgsql = `
BEGIN;

CREATE TABLE IF NOT EXISTS campaigns (
  id INT PRIMARY KEY,
  goal BIGINT NOT NULL CHECK (goal > 0),
  beneficiary VARCHAR(128) NOT NULL,
  total_pledged BIGINT NOT NULL DEFAULT 0,
  escrow BIGINT NOT NULL DEFAULT 0,
  goal_achieved BOOLEAN NOT NULL DEFAULT FALSE,
  funds_claimed BOOLEAN NOT NULL DEFAULT FALSE,
  pledgers INT NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL,
  claimed_at TIMESTAMPTZ NULL
);

CREATE TABLE IF NOT EXISTS pledges (
  pledger VARCHAR(128) PRIMARY KEY,
  amount BIGINT NOT NULL CHECK (amount >= 0),
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
  seq BIGSERIAL PRIMARY KEY,
  id VARCHAR(32) NOT NULL UNIQUE,
  kind VARCHAR(32) NOT NULL,
  caller VARCHAR(128) NOT NULL,
  amount BIGINT NOT NULL,
  total_pledged BIGINT NOT NULL,
  time TIMESTAMPTZ NOT NULL
);

COMMIT;
`
