package sqlinline

const QInsertSubscriptionSetup = `--sql 1515b699-bcbd-4955-94e1-7a1c167e9d71
insert into subscription_setups(payment_id, subscription_ref, status, attempts, next_attempt_at, created_at, updated_at)
values ($1::bigint, $2::text, 'pending', 0, $3::timestamptz, $4::timestamptz, $4::timestamptz)
returning id, payment_id, subscription_ref, status, attempts, coalesce(last_error, ''), next_attempt_at, created_at, updated_at;
`

const QSelectSubscriptionSetupByPayment = `--sql 52ff253f-0ca8-4611-ae1d-12778572fa85
select id, payment_id, subscription_ref, status, attempts, coalesce(last_error, ''), next_attempt_at, created_at, updated_at
from subscription_setups
where payment_id = $1::bigint;
`

const QClaimDueSubscriptionSetups = `--sql 40a51216-71c1-459f-8ef7-aa7d6b997f12
with due as (
    select id
    from subscription_setups
    where status = 'pending'
      and next_attempt_at <= $1::timestamptz
    order by next_attempt_at asc
    limit $3::int
    for update skip locked
)
update subscription_setups s
set next_attempt_at = $2::timestamptz, updated_at = $1::timestamptz
from due
where s.id = due.id
returning s.id, s.payment_id, s.subscription_ref, s.status, s.attempts, coalesce(s.last_error, ''), s.next_attempt_at, s.created_at, s.updated_at;
`

const QClaimSubscriptionSetup = `--sql dac05d00-a3ba-4b81-abd6-91753799bce1
update subscription_setups
set attempts = case when status = 'failed' then 0 else attempts end,
    status = 'pending',
    next_attempt_at = $3::timestamptz,
    updated_at = $2::timestamptz
where payment_id = $1::bigint
  and (status = 'failed' or (status = 'pending' and next_attempt_at <= $2::timestamptz))
returning id, payment_id, subscription_ref, status, attempts, coalesce(last_error, ''), next_attempt_at, created_at, updated_at;
`

const QListSubscriptionSetupsByStatus = `--sql ce90ed7e-97dc-4798-b27d-36b7200e8b85
select id, payment_id, subscription_ref, status, attempts, coalesce(last_error, ''), next_attempt_at, created_at, updated_at
from subscription_setups
where status = $1::text
order by updated_at desc
limit $2::int;
`

const QRecordSubscriptionSetupFailure = `--sql 0701aeba-eb06-4d59-b65f-eb486c99adab
update subscription_setups
set attempts = attempts + 1,
    last_error = $2::text,
    next_attempt_at = $3::timestamptz,
    status = case when $4::boolean then 'failed' else 'pending' end,
    updated_at = now()
where id = $1::bigint
  and status = 'pending'
returning id, payment_id, subscription_ref, status, attempts, coalesce(last_error, ''), next_attempt_at, created_at, updated_at;
`

const QMarkSubscriptionSetupDone = `--sql 30c9bf03-adf4-430f-a4db-7eb41dde27a1
update subscription_setups
set status = 'done', last_error = null, updated_at = now()
where id = $1::bigint;
`

// QInsertSubscription relies on subscriptions_payment_id_key: a second insert
// for the same payment returns no row instead of creating a duplicate.
const QInsertSubscription = `--sql b6baa875-7dcc-4ba8-b28d-84e4488e9ebb
insert into subscriptions(payment_id, creator_id, supporter_id, tier_id, amount, gateway_subscription_id, status, start_date, next_billing_date)
values ($1::bigint, $2::bigint, $3::bigint, $4::bigint, $5::numeric, $6::text, $7::text, $8::timestamptz, $9::timestamptz)
on conflict (payment_id) do nothing
returning id, payment_id, creator_id, supporter_id, tier_id, amount::text, gateway_subscription_id, status, start_date, next_billing_date, cancelled_at;
`

const QSelectSubscriptionByID = `--sql eb9e3349-5e54-424f-b54e-05945d89e291
select id, payment_id, creator_id, supporter_id, tier_id, amount::text, gateway_subscription_id, status, start_date, next_billing_date, cancelled_at
from subscriptions
where id = $1::bigint;
`

const QSelectSubscriptionByPaymentID = `--sql 8a12caa0-a0be-47c2-9bf8-271b6aad5db3
select id, payment_id, creator_id, supporter_id, tier_id, amount::text, gateway_subscription_id, status, start_date, next_billing_date, cancelled_at
from subscriptions
where payment_id = $1::bigint;
`

const QCancelSubscription = `--sql e043b12e-3e31-4738-90b4-7af974cd4321
update subscriptions
set status = 'cancelled', cancelled_at = $2::timestamptz
where id = $1::bigint
  and status in ('active', 'paused')
returning id, payment_id, creator_id, supporter_id, tier_id, amount::text, gateway_subscription_id, status, start_date, next_billing_date, cancelled_at;
`
